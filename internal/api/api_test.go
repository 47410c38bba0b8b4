package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/linguatune/internal/config"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	repo    *sqlrepo.Repository
	songs   []*dal.Song
}

type client struct {
	s       *testServer
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := t.Context()

	db, err := sqlrepo.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := sqlrepo.NewRepository(ctx, db, log)

	conf := &config.API{
		Dev:           true,
		LinkExpiresIn: time.Minute,
		HTTP: config.HTTP{
			ProcessTimeout: 5 * time.Second,
			RateLimit:      1000,
			CORS:           config.CORS{AllowOrigins: []string{"http://localhost"}},
			Cookie:         config.Cookie{Path: "/", Domain: "example.com", AccessExpiresIn: time.Hour},
			JWT:            config.JWT{Issuer: "test", Audience: []string{"test"}, Secret: "secret"},
		},
	}

	s := &testServer{
		t:       t,
		handler: NewRouter(ctx, conf, Dependencies{Repo: repo, Logger: log, Version: "v1", BuildTime: "now"}),
		repo:    repo,
	}

	for _, code := range []string{"en", "fr"} {
		require.NoError(t, repo.AddLanguage(ctx, &dal.Language{Name: code, Code: code, Difficulty: dal.DifficultyBeginner}))
	}
	for _, song := range []dal.Song{
		{Title: "One", Artist: "A", Language: "en", Vocabulary: dal.Strings{"a", "b"}},
		{Title: "Two", Artist: "A", Language: "en", Vocabulary: dal.Strings{"b", "c"}},
		{Title: "Three", Artist: "B", Language: "fr", Vocabulary: dal.Strings{"d"}},
	} {
		song.Difficulty = dal.DifficultyBeginner
		require.NoError(t, repo.AddSong(ctx, &song))
		s.songs = append(s.songs, &song)
	}

	return s
}

func (s *testServer) anonymous() *client {
	return &client{s: s}
}

func (s *testServer) signUp(email string) *client {
	c := s.anonymous()
	rec := c.do(http.MethodPost, "/auth/signup", `{"email":"`+email+`","password":"password1"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return c
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.s.handler.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func songPath(id int64) string {
	return "/progress/songs/" + itoa(id)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.anonymous().do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "version": "v1", "build_time": "now"}, decode(t, rec))
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	anon := s.anonymous()

	rec := anon.do(http.MethodGet, "/auth/info", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = anon.do(http.MethodPost, "/auth/signup", `{"email":"not-an-email","password":"password1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email", decode(t, rec)["error"])

	user := s.signUp("Ann@Example.com")
	rec = user.do(http.MethodGet, "/auth/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode(t, rec)
	assert.Equal(t, "ann@example.com", info["email"])
	assert.Equal(t, false, info["is_admin"])

	rec = s.anonymous().do(http.MethodPost, "/auth/signup", `{"email":"ann@example.com","password":"password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.anonymous().do(http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := s.anonymous()
	rec = other.do(http.MethodPost, "/auth/signin", `{"email":"ANN@example.com","password":"password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = other.do(http.MethodGet, "/auth/info", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = other.do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = other.do(http.MethodGet, "/auth/info", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProgressFlow(t *testing.T) {
	s := newTestServer(t)
	user := s.signUp("ann@example.com")

	rec := user.do(http.MethodGet, "/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode(t, rec)
	assert.InDelta(t, 0.0, snap["completion_percentage"], 0.001)
	assert.InDelta(t, 3.0, snap["total_songs"], 0.001)

	rec = user.do(http.MethodPost, songPath(s.songs[0].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "learned", decode(t, rec)["status"])

	rec = user.do(http.MethodPost, songPath(s.songs[1].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode(t, rec)
	assert.InDelta(t, 2.0, snap["songs_learned"], 0.001)
	assert.Equal(t, []any{"a", "b", "c"}, snap["words_learned"])
	assert.Equal(t, []any{"en"}, snap["languages_learned"])
	assert.InDelta(t, 66.7, snap["completion_percentage"], 0.001)
	assert.Len(t, snap["learned_songs"], 2)

	rec = user.do(http.MethodPost, songPath(s.songs[1].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode(t, rec)
	assert.Equal(t, "already_learned", snap["status"])
	assert.InDelta(t, 2.0, snap["songs_learned"], 0.001)

	rec = user.do(http.MethodPost, songPath(999), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = user.do(http.MethodPost, "/progress/songs/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = user.do(http.MethodDelete, songPath(s.songs[2].ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "song is not learned", decode(t, rec)["error"])

	rec = user.do(http.MethodDelete, songPath(s.songs[0].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode(t, rec)
	assert.Equal(t, "unlearned", snap["status"])
	assert.Equal(t, []any{"b", "c"}, snap["words_learned"])

	rec = user.do(http.MethodGet, "/languages/EN/songs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.InDelta(t, 2.0, body["total"], 0.001)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	learned := 0
	for _, item := range items {
		if m, _ := item.(map[string]any); m["is_learned"] == true {
			learned++
		}
	}
	assert.Equal(t, 1, learned)

	rec = user.do(http.MethodGet, "/languages/de/songs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.0, decode(t, rec)["total"], 0.001)

	rec = s.anonymous().do(http.MethodPost, songPath(s.songs[0].ID), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)
	anon := s.anonymous()

	rec := anon.do(http.MethodGet, "/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 2)

	rec = anon.do(http.MethodGet, "/languages/fr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fr", decode(t, rec)["code"])

	rec = anon.do(http.MethodGet, "/languages/xx", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = anon.do(http.MethodGet, "/songs?language=en&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.InDelta(t, 2.0, body["total"], 0.001)
	assert.Len(t, body["items"], 1)

	rec = anon.do(http.MethodGet, "/songs?difficulty=expert", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = anon.do(http.MethodGet, "/songs/"+itoa(s.songs[2].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"d"}, decode(t, rec)["vocabulary"])

	rec = anon.do(http.MethodGet, "/songs/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = anon.do(http.MethodGet, "/artists", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	user := s.signUp("ann@example.com")

	rec := user.do(http.MethodPut, "/profile/language", `{"language":"FR"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fr", decode(t, rec)["current_language"])

	rec = user.do(http.MethodPut, "/profile/language", `{"language":"xx"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = user.do(http.MethodPut, "/profile/language", `{"language":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode(t, rec)["current_language"])

	rec = user.do(http.MethodPost, "/telegram/link", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	code, _ := decode(t, rec)["code"].(string)
	require.Len(t, code, linkCodeLength)

	u, err := s.repo.FindUserByEmail(t.Context(), "ann@example.com")
	require.NoError(t, err)
	userID, err := s.repo.ConsumeLinkCode(t.Context(), code)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)
	ctx := t.Context()

	regular := s.signUp("bob@example.com")
	rec := regular.do(http.MethodGet, "/admin/stats", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.signUp("admin@example.com")
	u, err := s.repo.FindUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	u.IsAdmin = true
	require.NoError(t, s.repo.UpdateUser(ctx, u))

	rec = admin.do(http.MethodGet, "/admin/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.InDelta(t, 2.0, stats["total_users"], 0.001)
	assert.InDelta(t, 3.0, stats["total_songs"], 0.001)

	rec = admin.do(http.MethodPost, "/admin/songs",
		`{"title":"Four","artist":"C","language":"fr","difficulty":"advanced","vocabulary":["e"],"duration":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	newID := int64(decode(t, rec)["id"].(float64)) //nolint:forcetypeassert // test

	rec = admin.do(http.MethodPost, "/admin/songs",
		`{"title":"Four","artist":"C","language":"fr","difficulty":"advanced"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = admin.do(http.MethodPost, "/admin/songs",
		`{"title":"Five","artist":"C","language":"xx","difficulty":"advanced"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = admin.do(http.MethodPut, "/admin/songs/"+itoa(newID),
		`{"title":"Four","artist":"C","language":"fr","difficulty":"beginner","duration":150}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "beginner", decode(t, rec)["difficulty"])

	rec = admin.do(http.MethodDelete, "/admin/languages/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = admin.do(http.MethodPost, "/admin/languages", `{"name":"German","code":"DE","difficulty":"advanced"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	langID := int64(decode(t, rec)["id"].(float64)) //nolint:forcetypeassert // test

	rec = admin.do(http.MethodDelete, "/admin/languages/"+itoa(langID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = admin.do(http.MethodDelete, "/admin/songs/"+itoa(newID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = admin.do(http.MethodDelete, "/admin/songs/"+itoa(newID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = admin.do(http.MethodGet, "/admin/users?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2.0, decode(t, rec)["total"], 0.001)

	bob, err := s.repo.FindUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)

	rec = admin.do(http.MethodPut, "/admin/users/"+itoa(bob.ID)+"/admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = regular.do(http.MethodGet, "/admin/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = admin.do(http.MethodDelete, "/admin/users/"+itoa(u.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = admin.do(http.MethodDelete, "/admin/users/"+itoa(bob.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = regular.do(http.MethodGet, "/admin/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
