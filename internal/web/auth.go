package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/linguatune/internal/auth"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/web/views"
)

const invalidCredentials = "Invalid email or password"

type (
	AuthHandler struct {
		repo             dal.UsersRepository
		jwtProcessor     *auth.JWTProcessor
		cookiesProcessor *auth.CookiesProcessor

		log *slog.Logger
	}

	CredentialsForm struct {
		Email    string `form:"email" validate:"required,email,max=254"`
		Password string `form:"password" validate:"required,min=8,max=72"`
	}
)

func NewAuthHandler(repo dal.UsersRepository, jwtProc *auth.JWTProcessor, cookiesProc *auth.CookiesProcessor, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		repo:             repo,
		jwtProcessor:     jwtProc,
		cookiesProcessor: cookiesProc,

		log: log,
	}
}

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return views.RegisterPage(newPage(c, "Register", nil), "").Render(c.Request().Context(), c.Response().Writer)
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	form, message := h.bindForm(c)
	if message != "" {
		return h.registerError(c, http.StatusBadRequest, message, form.Email)
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return err
	}

	user := &dal.User{Email: form.Email, PasswordHash: hash}
	if err = h.repo.AddUser(ctx, user); err != nil {
		if errors.Is(err, dal.ErrAlreadyExists) {
			return h.registerError(c, http.StatusConflict, "Email is already registered", form.Email)
		}
		return err
	}

	h.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return h.signIn(c, user.ID)
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	return views.LoginPage(newPage(c, "Log in", nil), "").Render(c.Request().Context(), c.Response().Writer)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	form, message := h.bindForm(c)
	if message != "" {
		return h.loginError(c, http.StatusBadRequest, message, form.Email)
	}

	user, err := h.repo.FindUserByEmail(ctx, form.Email)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return h.loginError(c, http.StatusUnauthorized, invalidCredentials, form.Email)
		}
		return err
	}

	if err = auth.CheckPassword(user.PasswordHash, form.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return h.loginError(c, http.StatusUnauthorized, invalidCredentials, form.Email)
		}
		return err
	}

	return h.signIn(c, user.ID)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(h.cookiesProcessor.ExpireAccessTokenCookie())
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) registerError(c echo.Context, status int, message, email string) error {
	page := newPage(c, "Register", nil)
	page.Error = message
	return renderStatus(c, status, views.RegisterPage(page, email))
}

func (h *AuthHandler) loginError(c echo.Context, status int, message, email string) error {
	page := newPage(c, "Log in", nil)
	page.Error = message
	return renderStatus(c, status, views.LoginPage(page, email))
}

func (h *AuthHandler) signIn(c echo.Context, userID int64) error {
	token, err := h.jwtProcessor.ToAccessToken(userID)
	if err != nil {
		return err
	}
	c.SetCookie(h.cookiesProcessor.NewAccessTokenCookie(token))
	return c.Redirect(http.StatusFound, "/songs")
}

// bindForm returns the normalized form and a user facing message when it is invalid.
func (h *AuthHandler) bindForm(c echo.Context) (CredentialsForm, string) {
	var form CredentialsForm
	if err := c.Bind(&form); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind form", "error", err)
		return form, "Invalid form"
	}
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	if err := c.Validate(&form); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if m, ok := httpErr.Message.(string); ok {
				return CredentialsForm{Email: form.Email}, m
			}
		}
		return CredentialsForm{Email: form.Email}, "Invalid form"
	}

	return form, ""
}
