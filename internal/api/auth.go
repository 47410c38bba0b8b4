package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/linguatune/internal/auth"
	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
)

type (
	AuthDependencies struct {
		Repo             dal.UsersRepository
		JWTProcessor     *auth.JWTProcessor
		CookiesProcessor *auth.CookiesProcessor
		Logger           *slog.Logger
	}

	AuthHandler struct {
		repo             dal.UsersRepository
		jwtProcessor     *auth.JWTProcessor
		cookiesProcessor *auth.CookiesProcessor

		log *slog.Logger
	}

	CredentialsRequest struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	UserInfo struct {
		ID              int64  `json:"id"`
		Email           string `json:"email"`
		IsAdmin         bool   `json:"is_admin"`
		CurrentLanguage string `json:"current_language"`
		TelegramLinked  bool   `json:"telegram_linked"`
	}
)

func NewAuthHandler(deps AuthDependencies) *AuthHandler {
	return &AuthHandler{
		repo:             deps.Repo,
		jwtProcessor:     deps.JWTProcessor,
		cookiesProcessor: deps.CookiesProcessor,

		log: deps.Logger,
	}
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := h.bindCredentials(c)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	user := &dal.User{Email: req.Email, PasswordHash: hash}
	if err = h.repo.AddUser(ctx, user); err != nil {
		if errors.Is(err, dal.ErrAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{"email is already registered"})
		}
		h.log.ErrorContext(ctx, "failed to add user", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	if err = h.setAccessCookie(c, user.ID); err != nil {
		return err
	}

	h.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return c.JSON(http.StatusCreated, toUserInfo(user))
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := h.bindCredentials(c)
	if err != nil {
		return err
	}

	user, err := h.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{"invalid email or password"})
		}
		h.log.ErrorContext(ctx, "failed to find user", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	if err = auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{"invalid email or password"})
		}
		h.log.ErrorContext(ctx, "failed to check password", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	if err = h.setAccessCookie(c, user.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserInfo(user))
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(h.cookiesProcessor.ExpireAccessTokenCookie())
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *AuthHandler) Info(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.repo.FindUser(ctx, appctx.MustUserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, UnauthorizedError)
		}
		h.log.ErrorContext(ctx, "failed to find user", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, toUserInfo(user))
}

func (h *AuthHandler) bindCredentials(c echo.Context) (*CredentialsRequest, error) {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return nil, echo.NewHTTPError(http.StatusBadRequest, BadRequestError.Message)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := c.Validate(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to validate request", "error", err)
		return nil, err
	}

	return &req, nil
}

func (h *AuthHandler) setAccessCookie(c echo.Context, userID int64) error {
	token, err := h.jwtProcessor.ToAccessToken(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(fmt.Errorf("create access token: %w", err))
	}
	c.SetCookie(h.cookiesProcessor.NewAccessTokenCookie(token))
	return nil
}

func toUserInfo(u *dal.User) UserInfo {
	return UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		IsAdmin:         u.IsAdmin,
		CurrentLanguage: u.CurrentLanguage,
		TelegramLinked:  u.TelegramChatID != 0,
	}
}
