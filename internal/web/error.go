package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

const somethingWentWrong = "Something went wrong"

func HTTPErrorHandler(log *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		var echoError *echo.HTTPError
		if errors.As(err, &echoError) {
			log.DebugContext(c.Request().Context(), "request rejected", "status", echoError.Code, "error", err)
			if echoError.Code == http.StatusTooManyRequests {
				if err = c.String(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)); err != nil {
					log.ErrorContext(c.Request().Context(), "failed to respond with error", "error", err)
				}
				return
			}

			message := http.StatusText(echoError.Code)
			if m, ok := echoError.Message.(string); ok && m != "" && echoError.Code < http.StatusInternalServerError {
				message = m
			}
			if err = redirectToError(c, message); err != nil {
				log.ErrorContext(c.Request().Context(), "failed to redirect echo error", "error", err)
			}
			return
		}

		log.ErrorContext(c.Request().Context(), "failed to process request", "error", err)
		if err = redirectToError(c, somethingWentWrong); err != nil {
			log.ErrorContext(c.Request().Context(), "failed to redirect", "error", err)
		}
	}
}

func redirectToError(c echo.Context, message string) error {
	return c.Redirect(http.StatusFound, "/error?error="+url.QueryEscape(message))
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/login")
}
