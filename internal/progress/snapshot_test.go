package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

func testCatalog() []dal.Song {
	return []dal.Song{
		{ID: 1, Title: "One", Language: "en", Vocabulary: dal.Strings{"a", "b"}},
		{ID: 2, Title: "Two", Language: "en", Vocabulary: dal.Strings{"b", "c"}},
		{ID: 3, Title: "Three", Language: "fr", Vocabulary: dal.Strings{"d"}},
	}
}

func TestCompute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		learned   dal.SongIDs
		catalog   []dal.Song
		songs     int
		words     []string
		languages []string
		percent   float64
		titles    []string
	}{
		{
			name:      "two of three",
			learned:   dal.SongIDs{1, 2},
			catalog:   testCatalog(),
			songs:     2,
			words:     []string{"a", "b", "c"},
			languages: []string{"en"},
			percent:   66.7,
			titles:    []string{"One", "Two"},
		},
		{
			name:      "nothing learned",
			learned:   nil,
			catalog:   testCatalog(),
			words:     []string{},
			languages: []string{},
			titles:    []string{},
		},
		{
			name:      "empty catalog",
			learned:   dal.SongIDs{1},
			catalog:   nil,
			words:     []string{},
			languages: []string{},
			titles:    []string{},
		},
		{
			name:      "deleted song skipped",
			learned:   dal.SongIDs{3, 42},
			catalog:   testCatalog(),
			songs:     1,
			words:     []string{"d"},
			languages: []string{"fr"},
			percent:   33.3,
			titles:    []string{"Three"},
		},
		{
			name:      "insertion order kept",
			learned:   dal.SongIDs{3, 1, 2},
			catalog:   testCatalog(),
			songs:     3,
			words:     []string{"d", "a", "b", "c"},
			languages: []string{"fr", "en"},
			percent:   100,
			titles:    []string{"Three", "One", "Two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Compute(tt.learned, tt.catalog)
			assert.Equal(t, tt.songs, got.SongsLearned)
			assert.Equal(t, tt.words, got.WordsLearned)
			assert.Equal(t, tt.languages, got.LanguagesLearned)
			assert.InDelta(t, tt.percent, got.CompletionPercentage, 0.0001)
			assert.Equal(t, len(tt.catalog), got.TotalSongs)

			titles := make([]string, 0, len(got.LearnedSongs))
			for _, s := range got.LearnedSongs {
				titles = append(titles, s.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestCompute_Pure(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	learned := dal.SongIDs{2, 3}

	first := Compute(learned, catalog)
	second := Compute(learned, catalog)
	assert.Equal(t, first, second)
	assert.Equal(t, dal.SongIDs{2, 3}, learned)
	assert.Equal(t, testCatalog(), catalog)
}

func TestCompute_PercentageBounds(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	for _, learned := range []dal.SongIDs{nil, {1}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		got := Compute(learned, catalog)
		assert.GreaterOrEqual(t, got.CompletionPercentage, 0.0)
		assert.LessOrEqual(t, got.CompletionPercentage, 100.0)
	}
}

func TestFilterByLanguage(t *testing.T) {
	t.Parallel()

	catalog := append(testCatalog(), dal.Song{ID: 4, Title: "Four", Language: "en-US"})

	assert.Len(t, FilterByLanguage(catalog, "EN"), 2)
	assert.Len(t, FilterByLanguage(catalog, "Fr"), 1)
	assert.Len(t, FilterByLanguage(catalog, "en-us"), 1)
	assert.Empty(t, FilterByLanguage(catalog, "e"))
	assert.Empty(t, FilterByLanguage(nil, "en"))
}
