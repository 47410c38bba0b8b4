package data

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
)

func collect(t *testing.T, read func(out chan<- Line) error) ([]Line, error) {
	t.Helper()

	out := make(chan Line)
	errCh := make(chan error, 1)
	go func() {
		errCh <- read(out)
	}()

	var lines []Line
	for l := range out {
		lines = append(lines, l)
	}
	return lines, <-errCh
}

func TestParse(t *testing.T) {
	input := `# title | artist | language | difficulty | duration | vocabulary
Yesterday | The Beatles | EN | Beginner | 2:05 | yesterday, troubles, yesterday

Human|Imagine Dragons|en|beginner|245
broken line
Spring Day | BTS | ko | expert | 265 | 봄
Voyage voyage | Kate Ryan | fr | intermediate | -1 |
`

	lines, err := collect(t, func(out chan<- Line) error {
		return Parse(t.Context(), io.NopCloser(strings.NewReader(input)), out)
	})

	var parsingErr *ParsingError
	require.ErrorAs(t, err, &parsingErr)
	assert.Equal(t, []int{5, 6, 7}, parsingErr.InvalidLines)

	assert.Equal(t, []Line{
		{
			Title:      "Yesterday",
			Artist:     "The Beatles",
			Language:   "en",
			Difficulty: dal.DifficultyBeginner,
			Duration:   125,
			Vocabulary: []string{"yesterday", "troubles"},
		},
		{
			Title:      "Human",
			Artist:     "Imagine Dragons",
			Language:   "en",
			Difficulty: dal.DifficultyBeginner,
			Duration:   245,
			Vocabulary: []string{},
		},
	}, lines)
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	out := make(chan Line)
	err := Parse(ctx, io.NopCloser(strings.NewReader("A | B | en | beginner | 1 | w\n")), out)
	require.NoError(t, err)

	_, open := <-out
	assert.False(t, open)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		val     string
		want    int
		wantErr bool
	}{
		{val: "", want: 0},
		{val: "125", want: 125},
		{val: "2:05", want: 125},
		{val: "0:59", want: 59},
		{val: "2:5", wantErr: true},
		{val: "2:60", wantErr: true},
		{val: "-3", wantErr: true},
		{val: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			got, err := parseDuration(tt.val)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Title", "Artist", "Language", "Difficulty", "Duration", "Vocabulary"},
		{"Yesterday", "The Beatles", "en", "beginner", 125, "yesterday, troubles"},
		{},
		{"Spring Day", "BTS", "ko", "unknown", 265, "봄"},
		{"Human", "Imagine Dragons", "en", "beginner"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	lines, err := collect(t, func(out chan<- Line) error {
		return ReadXLSX(t.Context(), path, "", out)
	})

	var parsingErr *ParsingError
	require.ErrorAs(t, err, &parsingErr)
	assert.Equal(t, []int{4}, parsingErr.InvalidLines)

	require.Len(t, lines, 2)
	assert.Equal(t, Line{
		Title:      "Yesterday",
		Artist:     "The Beatles",
		Language:   "en",
		Difficulty: dal.DifficultyBeginner,
		Duration:   125,
		Vocabulary: []string{"yesterday", "troubles"},
	}, lines[0])
	assert.Equal(t, "Human", lines[1].Title)
	assert.Equal(t, 0, lines[1].Duration)

	_, err = collect(t, func(out chan<- Line) error {
		return ReadXLSX(t.Context(), path, "missing", out)
	})
	require.Error(t, err)
}

func setupRepo(t *testing.T) *sqlrepo.Repository {
	t.Helper()

	db, err := sqlrepo.Open(t.Context(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlrepo.NewRepository(t.Context(), db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSeed(t *testing.T) {
	ctx := t.Context()
	repo := setupRepo(t)

	res, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Languages: 3, Artists: 5, Songs: 6}, res)

	res, err = Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, res)

	totals, err := repo.GetTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, totals.Songs)
	assert.Equal(t, 3, totals.Languages)
	assert.Equal(t, 5, totals.Artists)

	song, err := repo.FindSongByTitle(ctx, "Spring Day", "BTS")
	require.NoError(t, err)
	assert.Equal(t, "ko", song.Language)
	assert.Contains(t, song.Vocabulary, "보고 싶다")
}

func TestSaveSong(t *testing.T) {
	ctx := t.Context()
	repo := setupRepo(t)
	_, err := Seed(ctx, repo)
	require.NoError(t, err)

	created, err := SaveSong(ctx, repo, Line{
		Title:      "Yesterday",
		Artist:     "The Beatles",
		Language:   "EN",
		Difficulty: dal.DifficultyIntermediate,
		Duration:   126,
		Vocabulary: []string{"yesterday"},
	})
	require.NoError(t, err)
	assert.False(t, created)

	song, err := repo.FindSongByTitle(ctx, "Yesterday", "The Beatles")
	require.NoError(t, err)
	assert.Equal(t, dal.DifficultyIntermediate, song.Difficulty)
	assert.Equal(t, 126, song.Duration)
	assert.Equal(t, dal.Strings{"yesterday"}, song.Vocabulary)
	assert.Contains(t, song.LyricsOriginal, "all my troubles")
	assert.Equal(t, "en", song.Language)

	created, err = SaveSong(ctx, repo, Line{Title: "Let It Be", Artist: "The Beatles", Language: "en", Difficulty: dal.DifficultyBeginner, Duration: 243, Vocabulary: []string{}})
	require.NoError(t, err)
	assert.True(t, created)

	_, err = SaveSong(ctx, repo, Line{Title: "Du hast", Artist: "Rammstein", Language: "de", Difficulty: dal.DifficultyAdvanced})
	assert.True(t, errors.Is(err, ErrUnknownLanguage))
}
