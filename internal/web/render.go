package web

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/web/views"
)

func newPage(c echo.Context, title string, user *dal.User) views.Page {
	page := views.Page{Title: title, User: user}
	if token, ok := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string); ok {
		page.CSRF = token
	}
	return page
}

// renderStatus renders component after writing status. Plain 200 pages call Render directly.
func renderStatus(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}
