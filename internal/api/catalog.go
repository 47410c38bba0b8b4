package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

const defaultPageSize = 20

type (
	CatalogHandler struct {
		repo dal.CatalogRepository
		log  *slog.Logger
	}

	SongsQueryParams struct {
		Search     string         `query:"search" validate:"max=100"`
		Language   string         `query:"language" validate:"max=16"`
		Difficulty dal.Difficulty `query:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
		Offset     uint64         `query:"offset"`
		Limit      uint64         `query:"limit" validate:"max=100"`
	}
)

func NewCatalogHandler(repo dal.CatalogRepository, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo: repo,
		log:  log,
	}
}

func (h *CatalogHandler) Languages(c echo.Context) error {
	langs, err := h.repo.FindLanguages(c.Request().Context())
	if err != nil {
		h.log.ErrorContext(c.Request().Context(), "failed to find languages", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	items := make([]Language, len(langs))
	for i, l := range langs {
		items[i] = toLanguage(l)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) Language(c echo.Context) error {
	lang, err := h.repo.FindLanguage(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{"language not found"})
		}
		h.log.ErrorContext(c.Request().Context(), "failed to find language", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, toLanguage(*lang))
}

func (h *CatalogHandler) Artists(c echo.Context) error {
	artists, err := h.repo.FindArtists(c.Request().Context())
	if err != nil {
		h.log.ErrorContext(c.Request().Context(), "failed to find artists", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	items := make([]Artist, len(artists))
	for i, a := range artists {
		items[i] = toArtist(a)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) Songs(c echo.Context) error {
	var qp SongsQueryParams
	if err := c.Bind(&qp); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}

	if err := c.Validate(&qp); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to validate request", "error", err)
		return err
	}

	if qp.Limit == 0 {
		qp.Limit = defaultPageSize
	}

	songs, total, err := h.repo.FindSongs(c.Request().Context(), dal.SongsFilter{
		Search:     qp.Search,
		Language:   qp.Language,
		Difficulty: qp.Difficulty,
		Offset:     qp.Offset,
		Limit:      qp.Limit,
	})
	if err != nil {
		h.log.ErrorContext(c.Request().Context(), "failed to find songs", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	items := make([]SongSummary, len(songs))
	for i, s := range songs {
		items[i] = toSongSummary(s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
	})
}

func (h *CatalogHandler) Song(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{"invalid song id"})
	}

	song, err := h.repo.FindSong(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{"song not found"})
		}
		h.log.ErrorContext(c.Request().Context(), "failed to find song", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	return c.JSON(http.StatusOK, toSong(*song))
}
