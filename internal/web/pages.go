package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	appctx "github.com/Roma7-7-7/linguatune/internal/context"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
	"github.com/Roma7-7-7/linguatune/internal/web/views"
)

const pageSize = 20

type (
	PagesHandler struct {
		repo   dal.Repository
		engine *progress.Engine
		log    *slog.Logger
	}

	SongsQuery struct {
		Search     string         `query:"search" validate:"max=100"`
		Language   string         `query:"language" validate:"max=16"`
		Difficulty dal.Difficulty `query:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
		Offset     uint64         `query:"offset"`
	}
)

func NewPagesHandler(repo dal.Repository, engine *progress.Engine, log *slog.Logger) *PagesHandler {
	return &PagesHandler{
		repo:   repo,
		engine: engine,
		log:    log,
	}
}

func (h *PagesHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	langs, err := h.repo.FindLanguages(ctx)
	if err != nil {
		return err
	}

	data := views.IndexData{Languages: langs}
	if user != nil {
		snapshot, err := h.engine.Snapshot(ctx, user.ID)
		if err != nil {
			return err
		}
		data.Snapshot = &snapshot
	}

	return views.IndexPage(newPage(c, "", user), data).Render(ctx, c.Response().Writer)
}

func (h *PagesHandler) Songs(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var q SongsQuery
	if err = c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid filter")
	}
	if err = c.Validate(&q); err != nil {
		return err
	}

	songs, total, err := h.repo.FindSongs(ctx, dal.SongsFilter{
		Search:     q.Search,
		Language:   q.Language,
		Difficulty: q.Difficulty,
		Offset:     q.Offset,
		Limit:      pageSize,
	})
	if err != nil {
		return err
	}

	langs, err := h.repo.FindLanguages(ctx)
	if err != nil {
		return err
	}

	data := views.SongsData{
		Heading:    "Songs",
		ShowFilter: true,
		Search:     q.Search,
		Language:   q.Language,
		Difficulty: string(q.Difficulty),
		Languages:  langs,
		Songs:      songRows(songs, user),
		Total:      total,
	}
	if q.Offset > 0 {
		data.PrevURL = songsURL(q, q.Offset-min(q.Offset, pageSize))
	}
	if q.Offset+pageSize < uint64(total) { //nolint:gosec // total is a row count
		data.NextURL = songsURL(q, q.Offset+pageSize)
	}

	return views.SongsPage(newPage(c, "Songs", user), data).Render(ctx, c.Response().Writer)
}

func (h *PagesHandler) SongsByLanguage(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	heading := "Songs in " + code
	lang, err := h.repo.FindLanguage(ctx, code)
	switch {
	case err == nil:
		heading = "Songs in " + lang.Name
	case !errors.Is(err, dal.ErrNotFound):
		return err
	}

	songs, err := h.engine.SongsByLanguage(ctx, code)
	if err != nil {
		return err
	}

	data := views.SongsData{
		Heading: heading,
		Songs:   songRows(songs, user),
		Total:   len(songs),
	}
	return views.SongsPage(newPage(c, heading, user), data).Render(ctx, c.Response().Writer)
}

func (h *PagesHandler) Song(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid song id")
	}

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	song, err := h.repo.FindSong(ctx, id)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Song not found")
		}
		return err
	}

	data := views.SongData{Song: *song, Learned: user != nil && user.LearnedSongs.Contains(song.ID)}
	return views.SongPage(newPage(c, song.Title, user), data).Render(ctx, c.Response().Writer)
}

func (h *PagesHandler) Learn(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := appctx.UserIDFromContext(ctx)
	if !ok {
		return redirectToLogin(c)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid song id")
	}

	if _, err = h.engine.MarkLearned(ctx, userID, id); err != nil {
		return progressError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/song/"+strconv.FormatInt(id, 10))
}

func (h *PagesHandler) Unlearn(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := appctx.UserIDFromContext(ctx)
	if !ok {
		return redirectToLogin(c)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid song id")
	}

	if _, err = h.engine.UnmarkLearned(ctx, userID, id); err != nil {
		return progressError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/song/"+strconv.FormatInt(id, 10))
}

func (h *PagesHandler) Languages(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	langs, err := h.repo.FindLanguages(c.Request().Context())
	if err != nil {
		return err
	}

	return views.LanguagesPage(newPage(c, "Languages", user), langs).Render(c.Request().Context(), c.Response().Writer)
}

func (h *PagesHandler) Progress(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return redirectToLogin(c)
	}

	snapshot, err := h.engine.Snapshot(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return views.ProgressPage(newPage(c, "My progress", user), snapshot).Render(c.Request().Context(), c.Response().Writer)
}

func (h *PagesHandler) ErrorPage(c echo.Context) error {
	message := c.QueryParam("error")
	if message == "" {
		message = somethingWentWrong
	}
	return views.ErrorPage(newPage(c, "Error", nil), message).Render(c.Request().Context(), c.Response().Writer)
}

// currentUser returns nil without an error for anonymous visitors and for users deleted after signing in.
func (h *PagesHandler) currentUser(c echo.Context) (*dal.User, error) {
	userID, ok := appctx.UserIDFromContext(c.Request().Context())
	if !ok {
		return nil, nil //nolint:nilnil // anonymous visitor
	}

	user, err := h.repo.FindUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, nil //nolint:nilnil // stale session
		}
		return nil, err
	}
	return user, nil
}

func progressError(err error) error {
	switch {
	case errors.Is(err, progress.ErrSongNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Song not found")
	case errors.Is(err, progress.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in again")
	case errors.Is(err, progress.ErrNotLearned):
		return echo.NewHTTPError(http.StatusConflict, "Song is not learned")
	case errors.Is(err, dal.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Progress was changed concurrently, try again")
	default:
		return err
	}
}

func songRows(songs []dal.Song, user *dal.User) []views.SongRow {
	res := make([]views.SongRow, len(songs))
	for i, s := range songs {
		res[i] = views.SongRow{Song: s, Learned: user != nil && user.LearnedSongs.Contains(s.ID)}
	}
	return res
}

func songsURL(q SongsQuery, offset uint64) string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Language != "" {
		values.Set("language", q.Language)
	}
	if q.Difficulty != "" {
		values.Set("difficulty", string(q.Difficulty))
	}
	if offset > 0 {
		values.Set("offset", strconv.FormatUint(offset, 10))
	}
	if len(values) == 0 {
		return "/songs"
	}
	return "/songs?" + values.Encode()
}
