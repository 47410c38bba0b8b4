package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
)

const linkCodeLength = 8

var errUnknownLanguage = errors.New("unknown language")

type (
	ProfileHandler struct {
		repo          dal.Repository
		linkExpiresIn time.Duration
		log           *slog.Logger
	}

	CurrentLanguageRequest struct {
		Language string `json:"language" validate:"max=16"`
	}
)

func NewProfileHandler(repo dal.Repository, linkExpiresIn time.Duration, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		repo:          repo,
		linkExpiresIn: linkExpiresIn,
		log:           log,
	}
}

// SetLanguage stores the preferred language. An empty language clears the preference.
func (h *ProfileHandler) SetLanguage(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appctx.MustUserIDFromContext(ctx)

	var req CurrentLanguageRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(ctx, "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}

	if err := c.Validate(&req); err != nil {
		h.log.DebugContext(ctx, "failed to validate request", "error", err)
		return err
	}

	var user *dal.User
	err := h.repo.Transact(ctx, func(r dal.Repository) error {
		if req.Language != "" {
			lang, err := r.FindLanguage(ctx, req.Language)
			if err != nil {
				if errors.Is(err, dal.ErrNotFound) {
					return errUnknownLanguage
				}
				return err
			}
			req.Language = lang.Code
		}

		var err error
		if user, err = r.FindUser(ctx, userID); err != nil {
			return err
		}
		user.CurrentLanguage = req.Language
		return r.UpdateUser(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, errUnknownLanguage):
			return c.JSON(http.StatusBadRequest, ErrorResponse{errUnknownLanguage.Error()})
		case errors.Is(err, dal.ErrNotFound):
			return c.JSON(http.StatusUnauthorized, UnauthorizedError)
		case errors.Is(err, dal.ErrConflict):
			return c.JSON(http.StatusConflict, ErrorResponse{"profile was changed concurrently, try again"})
		default:
			h.log.ErrorContext(ctx, "failed to set current language", "error", err)
			return c.JSON(http.StatusInternalServerError, InternalServerError)
		}
	}

	return c.JSON(http.StatusOK, toUserInfo(user))
}

// TelegramLink issues a one-time code that binds a Telegram chat to the user via the bot's /link command.
func (h *ProfileHandler) TelegramLink(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appctx.MustUserIDFromContext(ctx)

	code := newLinkCode()
	if err := h.repo.InsertLinkCode(ctx, userID, code, h.linkExpiresIn); err != nil {
		h.log.ErrorContext(ctx, "failed to insert link code", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"code":       code,
		"command":    "/link " + code,
		"expires_at": time.Now().Add(h.linkExpiresIn).UTC(),
	})
}

func newLinkCode() string {
	return uuid.NewString()[:linkCodeLength]
}
