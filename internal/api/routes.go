package api

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
		Repo      dal.Repository
		Logger    *slog.Logger
		Version   string
		BuildTime string
	}
)

func NewRouter(ctx context.Context, conf *config.API, deps Dependencies) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RequestID())
	e.Use(loggingMiddleware(ctx, deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(conf.HTTP.RateLimit))))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.HTTP.CORS.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: conf.HTTP.ProcessTimeout,
	}))
	e.Use(middleware.Secure())

	e.HTTPErrorHandler = HTTPErrorHandler(deps.Logger)

	jwtProcessor := auth.NewJWTProcessor(conf.HTTP.JWT, conf.HTTP.Cookie.AccessExpiresIn)
	cookiesProcessor := auth.NewCookiesProcessor(conf.HTTP.Cookie, conf.Dev)

	authMiddleware := AuthMiddleware(cookiesProcessor, jwtProcessor, deps.Logger)
	authHandler := NewAuthHandler(AuthDependencies{
		Repo:             deps.Repo,
		JWTProcessor:     jwtProcessor,
		CookiesProcessor: cookiesProcessor,
		Logger:           deps.Logger,
	})
	catalog := NewCatalogHandler(deps.Repo, deps.Logger)
	engine := progress.NewEngine(deps.Repo, deps.Logger)
	progressHandler := NewProgressHandler(engine, deps.Repo, deps.Logger)
	profile := NewProfileHandler(deps.Repo, conf.LinkExpiresIn, deps.Logger)
	admin := NewAdminHandler(deps.Repo, deps.Logger)

	e.GET("/health", healthHandler(deps.Version, deps.BuildTime))

	e.POST("/auth/signup", authHandler.SignUp)
	e.POST("/auth/signin", authHandler.SignIn)
	e.POST("/auth/logout", authHandler.LogOut)

	e.GET("/languages", catalog.Languages)
	e.GET("/languages/:code", catalog.Language)
	e.GET("/artists", catalog.Artists)
	e.GET("/songs", catalog.Songs)
	e.GET("/songs/:id", catalog.Song)

	securedGroup := e.Group("", authMiddleware)
	securedGroup.GET("/auth/info", authHandler.Info)
	securedGroup.GET("/progress", progressHandler.Get)
	securedGroup.POST("/progress/songs/:id", progressHandler.MarkLearned)
	securedGroup.DELETE("/progress/songs/:id", progressHandler.UnmarkLearned)
	securedGroup.GET("/languages/:code/songs", progressHandler.SongsByLanguage)
	securedGroup.PUT("/profile/language", profile.SetLanguage)
	securedGroup.POST("/telegram/link", profile.TelegramLink)

	adminGroup := securedGroup.Group("/admin", AdminMiddleware(deps.Repo, deps.Logger))
	adminGroup.POST("/songs", admin.AddSong)
	adminGroup.PUT("/songs/:id", admin.UpdateSong)
	adminGroup.DELETE("/songs/:id", admin.DeleteSong)
	adminGroup.POST("/languages", admin.AddLanguage)
	adminGroup.DELETE("/languages/:id", admin.DeleteLanguage)
	adminGroup.GET("/users", admin.Users)
	adminGroup.DELETE("/users/:id", admin.DeleteUser)
	adminGroup.PUT("/users/:id/admin", admin.MakeAdmin)
	adminGroup.GET("/stats", admin.Stats)

	return e
}
