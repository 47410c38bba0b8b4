package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Roma7-7-7/linguatune/internal/auth"
	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
)

func AuthMiddleware(cookieProc *auth.CookiesProcessor, jwtProc *auth.JWTProcessor, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := cookieProc.GetAccessToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, UnauthorizedError)
			}

			userID, err := jwtProc.ParseAccessToken(token)
			if err != nil {
				log.WarnContext(c.Request().Context(), "parse access token", "error", err)
				return c.JSON(http.StatusUnauthorized, UnauthorizedError)
			}

			c.SetRequest(c.Request().WithContext(appctx.WithUserID(c.Request().Context(), userID)))

			return next(c)
		}
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(repo dal.UsersRepository, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			user, err := repo.FindUser(ctx, appctx.MustUserIDFromContext(ctx))
			if err != nil {
				if errors.Is(err, dal.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, UnauthorizedError)
				}
				log.ErrorContext(ctx, "failed to find user", "error", err)
				return c.JSON(http.StatusInternalServerError, InternalServerError)
			}

			if !user.IsAdmin {
				return c.JSON(http.StatusForbidden, ForbiddenError)
			}

			return next(c)
		}
	}
}

func loggingMiddleware(ctx context.Context, log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true, // forwards error to the global error handler, so it can decide appropriate status code
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.LogAttrs(ctx, slog.LevelInfo, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("request_id", v.RequestID),
				)
			} else {
				log.LogAttrs(ctx, slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("request_id", v.RequestID),
					slog.String("err", v.Error.Error()),
				)
			}
			return nil
		},
	})
}
