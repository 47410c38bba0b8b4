package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
)

type (
	AdminHandler struct {
		repo dal.Repository
		log  *slog.Logger
	}

	SongRequest struct {
		Title             string         `json:"title" validate:"required,max=200"`
		Artist            string         `json:"artist" validate:"required,max=200"`
		Language          string         `json:"language" validate:"required,max=16"`
		LyricsOriginal    string         `json:"lyrics_original"`
		LyricsTranslation string         `json:"lyrics_translation"`
		Difficulty        dal.Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
		Vocabulary        []string       `json:"vocabulary" validate:"max=500,dive,required,max=100"`
		Duration          int            `json:"duration" validate:"min=0"`
	}

	LanguageRequest struct {
		Name        string         `json:"name" validate:"required,max=100"`
		Code        string         `json:"code" validate:"required,max=16"`
		Difficulty  dal.Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
		Description string         `json:"description" validate:"max=1000"`
	}

	UsersQueryParams struct {
		Offset uint64 `query:"offset"`
		Limit  uint64 `query:"limit" validate:"max=100"`
	}

	AdminUser struct {
		ID             int64     `json:"id"`
		Email          string    `json:"email"`
		IsAdmin        bool      `json:"is_admin"`
		SongsLearned   int       `json:"songs_learned"`
		TelegramLinked bool      `json:"telegram_linked"`
		CreatedAt      time.Time `json:"created_at"`
	}
)

func NewAdminHandler(repo dal.Repository, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		repo: repo,
		log:  log,
	}
}

func (h *AdminHandler) AddSong(c echo.Context) error {
	ctx := c.Request().Context()

	song, err := h.bindSong(c)
	if err != nil {
		return err
	}

	if err = h.repo.AddSong(ctx, song); err != nil {
		if errors.Is(err, dal.ErrAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{"song already exists"})
		}
		h.log.ErrorContext(ctx, "failed to add song", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	h.log.InfoContext(ctx, "song added", "song_id", song.ID, "title", song.Title)
	return c.JSON(http.StatusCreated, toSong(*song))
}

func (h *AdminHandler) UpdateSong(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid song id"})
	}

	song, err := h.bindSong(c)
	if err != nil {
		return err
	}
	song.ID = id

	if err = h.repo.UpdateSong(ctx, song); err != nil {
		switch {
		case errors.Is(err, dal.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{"song not found"})
		case errors.Is(err, dal.ErrAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{"song already exists"})
		default:
			h.log.ErrorContext(ctx, "failed to update song", "error", err)
			return c.JSON(http.StatusInternalServerError, InternalServerError)
		}
	}

	return c.JSON(http.StatusOK, toSong(*song))
}

// DeleteSong removes the song from the catalog. Learned ids pointing to it are kept and skipped by progress.
func (h *AdminHandler) DeleteSong(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid song id"})
	}

	if err := h.repo.DeleteSong(ctx, id); err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{"song not found"})
		}
		h.log.ErrorContext(ctx, "failed to delete song", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "song deleted"})
}

func (h *AdminHandler) AddLanguage(c echo.Context) error {
	ctx := c.Request().Context()

	var req LanguageRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(ctx, "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	req.Code = strings.ToLower(strings.TrimSpace(req.Code))

	if err := c.Validate(&req); err != nil {
		h.log.DebugContext(ctx, "failed to validate request", "error", err)
		return err
	}

	lang := &dal.Language{
		Name:        req.Name,
		Code:        req.Code,
		Difficulty:  req.Difficulty,
		Description: req.Description,
	}
	if err := h.repo.AddLanguage(ctx, lang); err != nil {
		if errors.Is(err, dal.ErrAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{"language already exists"})
		}
		h.log.ErrorContext(ctx, "failed to add language", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusCreated, toLanguage(*lang))
}

func (h *AdminHandler) DeleteLanguage(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid language id"})
	}

	err := h.repo.Transact(ctx, func(r dal.Repository) error {
		return r.DeleteLanguage(ctx, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, dal.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{"language not found"})
		case errors.Is(err, dal.ErrInUse):
			return c.JSON(http.StatusConflict, ErrorResponse{"language is used by songs"})
		default:
			h.log.ErrorContext(ctx, "failed to delete language", "error", err)
			return c.JSON(http.StatusInternalServerError, InternalServerError)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "language deleted"})
}

func (h *AdminHandler) Users(c echo.Context) error {
	ctx := c.Request().Context()

	var qp UsersQueryParams
	if err := c.Bind(&qp); err != nil {
		h.log.DebugContext(ctx, "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}

	if err := c.Validate(&qp); err != nil {
		h.log.DebugContext(ctx, "failed to validate request", "error", err)
		return err
	}

	if qp.Limit == 0 {
		qp.Limit = defaultPageSize
	}

	users, total, err := h.repo.FindUsers(ctx, qp.Offset, qp.Limit)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to find users", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	items := make([]AdminUser, len(users))
	for i, u := range users {
		items[i] = AdminUser{
			ID:             u.ID,
			Email:          u.Email,
			IsAdmin:        u.IsAdmin,
			SongsLearned:   len(u.LearnedSongs),
			TelegramLinked: u.TelegramChatID != 0,
			CreatedAt:      u.CreatedAt.UTC(),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
	})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid user id"})
	}
	if id == appctx.MustUserIDFromContext(ctx) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"cannot delete yourself"})
	}

	err := h.repo.Transact(ctx, func(r dal.Repository) error {
		return r.DeleteUser(ctx, id)
	})
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{"user not found"})
		}
		h.log.ErrorContext(ctx, "failed to delete user", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "user deleted"})
}

func (h *AdminHandler) MakeAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid user id"})
	}

	err := h.repo.Transact(ctx, func(r dal.Repository) error {
		user, err := r.FindUser(ctx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin {
			return nil
		}
		user.IsAdmin = true
		return r.UpdateUser(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, dal.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{"user not found"})
		case errors.Is(err, dal.ErrConflict):
			return c.JSON(http.StatusConflict, ErrorResponse{"user was changed concurrently, try again"})
		default:
			h.log.ErrorContext(ctx, "failed to make admin", "error", err)
			return c.JSON(http.StatusInternalServerError, InternalServerError)
		}
	}

	h.log.InfoContext(ctx, "user promoted to admin", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "user is admin"})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	totals, err := h.repo.GetTotals(c.Request().Context())
	if err != nil {
		h.log.ErrorContext(c.Request().Context(), "failed to get totals", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":     totals.Users,
		"total_songs":     totals.Songs,
		"total_languages": totals.Languages,
		"total_artists":   totals.Artists,
	})
}

func (h *AdminHandler) bindSong(c echo.Context) (*dal.Song, error) {
	ctx := c.Request().Context()

	var req SongRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(ctx, "failed to bind request", "error", err)
		return nil, echo.NewHTTPError(http.StatusBadRequest, BadRequestError.Message)
	}

	if err := c.Validate(&req); err != nil {
		h.log.DebugContext(ctx, "failed to validate request", "error", err)
		return nil, err
	}

	lang, err := h.repo.FindLanguage(ctx, req.Language)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, errUnknownLanguage.Error())
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	return &dal.Song{
		Title:             req.Title,
		Artist:            req.Artist,
		Language:          lang.Code,
		LyricsOriginal:    req.LyricsOriginal,
		LyricsTranslation: req.LyricsTranslation,
		Difficulty:        req.Difficulty,
		Vocabulary:        req.Vocabulary,
		Duration:          req.Duration,
	}, nil
}
