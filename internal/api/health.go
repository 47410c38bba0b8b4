package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func healthHandler(version, buildTime string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":     "ok",
			"version":    version,
			"build_time": buildTime,
		})
	}
}
