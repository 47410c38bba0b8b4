package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message string `json:"error"`
}

var (
	InternalServerError = ErrorResponse{"Internal server error"} //nolint:gochecknoglobals // this is a constant response for internal server error
	BadRequestError     = ErrorResponse{"Bad request"}           //nolint:gochecknoglobals // this is a constant response for bad request
	UnauthorizedError   = ErrorResponse{"Unauthorized"}          //nolint:gochecknoglobals // this is a constant response for unauthorized access
	ForbiddenError      = ErrorResponse{"Forbidden"}             //nolint:gochecknoglobals // this is a constant response for forbidden access
)

func HTTPErrorHandler(log *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		if c.Response().Committed {
			return
		}

		var echoError *echo.HTTPError
		if !errors.As(err, &echoError) {
			log.ErrorContext(ctx, "failed to process request", "error", err)
			writeError(c, log, http.StatusInternalServerError, InternalServerError)
			return
		}

		if echoError.Code >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "failed to process request", "error", err)
		} else {
			log.DebugContext(ctx, "request rejected", "status", echoError.Code, "error", err)
		}

		if message, ok := echoError.Message.(string); ok {
			if message == "" || echoError.Code == http.StatusInternalServerError {
				message = InternalServerError.Message
			}
			writeError(c, log, echoError.Code, ErrorResponse{Message: message})
			return
		}

		bytes, err := json.Marshal(echoError.Message)
		if err != nil {
			log.ErrorContext(ctx, "failed to marshal error message", "error", err)
			writeError(c, log, echoError.Code, InternalServerError)
			return
		}
		writeError(c, log, echoError.Code, ErrorResponse{Message: string(bytes)})
	}
}

func writeError(c echo.Context, log *slog.Logger, code int, resp ErrorResponse) {
	if err := c.JSON(code, resp); err != nil {
		log.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
	}
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
