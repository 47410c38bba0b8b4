package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

const (
	statusLearned        = "learned"
	statusAlreadyLearned = "already_learned"
	statusUnlearned      = "unlearned"
)

type ProgressHandler struct {
	engine *progress.Engine
	repo   dal.UsersRepository
	log    *slog.Logger
}

func NewProgressHandler(engine *progress.Engine, repo dal.UsersRepository, log *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		engine: engine,
		repo:   repo,
		log:    log,
	}
}

func (h *ProgressHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	snapshot, err := h.engine.Snapshot(ctx, appctx.MustUserIDFromContext(ctx))
	if err != nil {
		return h.progressError(c, err)
	}

	return c.JSON(http.StatusOK, toSnapshot("", snapshot))
}

func (h *ProgressHandler) MarkLearned(c echo.Context) error {
	ctx := c.Request().Context()

	songID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid song id"})
	}

	res, err := h.engine.MarkLearned(ctx, appctx.MustUserIDFromContext(ctx), songID)
	if err != nil {
		return h.progressError(c, err)
	}

	status := statusLearned
	if res.AlreadyLearned {
		status = statusAlreadyLearned
	}
	return c.JSON(http.StatusOK, toSnapshot(status, res.Snapshot))
}

func (h *ProgressHandler) UnmarkLearned(c echo.Context) error {
	ctx := c.Request().Context()

	songID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid song id"})
	}

	snapshot, err := h.engine.UnmarkLearned(ctx, appctx.MustUserIDFromContext(ctx), songID)
	if err != nil {
		return h.progressError(c, err)
	}

	return c.JSON(http.StatusOK, toSnapshot(statusUnlearned, snapshot))
}

func (h *ProgressHandler) SongsByLanguage(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	user, err := h.repo.FindUser(ctx, appctx.MustUserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, UnauthorizedError)
		}
		h.log.ErrorContext(ctx, "failed to find user", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	songs, err := h.engine.SongsByLanguage(ctx, code)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to filter songs", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	items := make([]LanguageSong, len(songs))
	for i, s := range songs {
		items[i] = LanguageSong{
			SongSummary: toSongSummary(s),
			Duration:    s.Duration,
			IsLearned:   user.LearnedSongs.Contains(s.ID),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"language": code,
		"items":    items,
		"total":    len(items),
	})
}

func (h *ProgressHandler) progressError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, progress.ErrSongNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{"song not found"})
	case errors.Is(err, progress.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, UnauthorizedError)
	case errors.Is(err, progress.ErrNotLearned):
		return c.JSON(http.StatusConflict, ErrorResponse{progress.ErrNotLearned.Error()})
	case errors.Is(err, dal.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{"progress was changed concurrently, try again"})
	default:
		h.log.ErrorContext(c.Request().Context(), "failed to update progress", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}
}
