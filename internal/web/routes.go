package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Roma7-7-7/linguatune/internal/auth"
	"github.com/Roma7-7-7/linguatune/internal/config"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
	"github.com/Roma7-7-7/linguatune/internal/validation"
)

type (
	Dependencies struct {
		Repo   dal.Repository
		Logger *slog.Logger
	}
)

func NewRouter(ctx context.Context, conf *config.Web, deps Dependencies) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RequestID())
	e.Use(loggingMiddleware(ctx, deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(conf.WebHTTP.RateLimit))))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: conf.WebHTTP.ProcessTimeout,
	}))
	e.Use(middleware.Secure())
	e.Use(csrfMiddleware(!conf.Dev))

	e.HTTPErrorHandler = HTTPErrorHandler(deps.Logger)

	jwtProcessor := auth.NewJWTProcessor(conf.WebHTTP.JWT, conf.WebHTTP.Cookie.AccessExpiresIn)
	cookiesProcessor := auth.NewCookiesProcessor(conf.WebHTTP.Cookie, conf.Dev)
	e.Use(OptionalAuthMiddleware(cookiesProcessor, jwtProcessor, deps.Logger))

	authHandler := NewAuthHandler(deps.Repo, jwtProcessor, cookiesProcessor, deps.Logger)
	pages := NewPagesHandler(deps.Repo, progress.NewEngine(deps.Repo, deps.Logger), deps.Logger)

	e.GET("/", pages.Index)
	e.GET("/register", authHandler.RegisterPage)
	e.POST("/register", authHandler.Register)
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.LogOut)

	e.GET("/songs", pages.Songs)
	e.GET("/songs/language/:code", pages.SongsByLanguage)
	e.GET("/song/:id", pages.Song)
	e.POST("/learn/:id", pages.Learn)
	e.POST("/unlearn/:id", pages.Unlearn)
	e.GET("/languages", pages.Languages)
	e.GET("/progress", pages.Progress)
	e.GET("/error", pages.ErrorPage)

	return e
}
