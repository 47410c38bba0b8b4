package progress

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
)

type fixture struct {
	repo   *sqlrepo.Repository
	engine *Engine
	user   *dal.User
	songs  []*dal.Song
}

func setupEngine(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()

	db, err := sqlrepo.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := sqlrepo.NewRepository(ctx, db, log)

	f := &fixture{repo: repo, engine: NewEngine(repo, log)}
	for _, s := range testCatalog() {
		song := &dal.Song{
			Title:      s.Title,
			Artist:     "Artist",
			Language:   s.Language,
			Difficulty: dal.DifficultyBeginner,
			Vocabulary: s.Vocabulary,
		}
		require.NoError(t, repo.AddSong(ctx, song))
		f.songs = append(f.songs, song)
	}

	f.user = &dal.User{Email: "ann@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.AddUser(ctx, f.user))

	return f
}

func TestEngine_MarkLearned(t *testing.T) {
	ctx := t.Context()
	f := setupEngine(t)

	res, err := f.engine.MarkLearned(ctx, f.user.ID, f.songs[0].ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyLearned)
	assert.Equal(t, 1, res.SongsLearned)

	res, err = f.engine.MarkLearned(ctx, f.user.ID, f.songs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SongsLearned)
	assert.Equal(t, []string{"a", "b", "c"}, res.WordsLearned)
	assert.Equal(t, []string{"en"}, res.LanguagesLearned)
	assert.InDelta(t, 66.7, res.CompletionPercentage, 0.0001)

	before, err := f.repo.FindUser(ctx, f.user.ID)
	require.NoError(t, err)

	res, err = f.engine.MarkLearned(ctx, f.user.ID, f.songs[1].ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyLearned)
	assert.Equal(t, 2, res.SongsLearned)

	after, err := f.repo.FindUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.LearnedSongs, after.LearnedSongs)
}

func TestEngine_MarkLearned_Concurrent(t *testing.T) {
	for range 3 {
		ctx := t.Context()
		f := setupEngine(t)

		var g errgroup.Group
		want := make([]int64, 0, len(f.songs))
		for _, song := range f.songs {
			want = append(want, song.ID)
			g.Go(func() error {
				_, err := f.engine.MarkLearned(ctx, f.user.ID, song.ID)
				return err
			})
		}
		require.NoError(t, g.Wait())

		user, err := f.repo.FindUser(ctx, f.user.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, []int64(user.LearnedSongs))
		assert.Equal(t, f.user.Version+len(f.songs), user.Version)
	}
}

func TestEngine_MarkLearned_Errors(t *testing.T) {
	ctx := t.Context()
	f := setupEngine(t)

	_, err := f.engine.MarkLearned(ctx, f.user.ID, 999)
	require.ErrorIs(t, err, ErrSongNotFound)
	require.ErrorIs(t, err, dal.ErrNotFound)

	_, err = f.engine.MarkLearned(ctx, 999, f.songs[0].ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	user, err := f.repo.FindUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, user.LearnedSongs)
}

func TestEngine_UnmarkLearned(t *testing.T) {
	ctx := t.Context()
	f := setupEngine(t)

	_, err := f.engine.UnmarkLearned(ctx, f.user.ID, f.songs[0].ID)
	require.ErrorIs(t, err, ErrNotLearned)

	_, err = f.engine.MarkLearned(ctx, f.user.ID, f.songs[0].ID)
	require.NoError(t, err)

	snap, err := f.engine.UnmarkLearned(ctx, f.user.ID, f.songs[0].ID)
	require.NoError(t, err)
	assert.Zero(t, snap.SongsLearned)
	assert.Empty(t, snap.WordsLearned)
	assert.Empty(t, snap.LanguagesLearned)
	assert.Zero(t, snap.CompletionPercentage)

	user, err := f.repo.FindUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, user.LearnedSongs)
}

func TestEngine_Drift(t *testing.T) {
	ctx := t.Context()
	f := setupEngine(t)

	for _, s := range f.songs[:2] {
		_, err := f.engine.MarkLearned(ctx, f.user.ID, s.ID)
		require.NoError(t, err)
	}
	require.NoError(t, f.repo.DeleteSong(ctx, f.songs[0].ID))

	snap, err := f.engine.Snapshot(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.SongsLearned)
	assert.Equal(t, []string{"b", "c"}, snap.WordsLearned)
	assert.InDelta(t, 50.0, snap.CompletionPercentage, 0.0001)

	snap, err = f.engine.UnmarkLearned(ctx, f.user.ID, f.songs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.SongsLearned)

	user, err := f.repo.FindUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, dal.SongIDs{f.songs[1].ID}, user.LearnedSongs)
}

func TestEngine_SongsByLanguage(t *testing.T) {
	f := setupEngine(t)

	songs, err := f.engine.SongsByLanguage(t.Context(), "FR")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Three", songs[0].Title)

	songs, err = f.engine.SongsByLanguage(t.Context(), "de")
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestEngine_SnapshotUnknownUser(t *testing.T) {
	f := setupEngine(t)

	_, err := f.engine.Snapshot(t.Context(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
