package progress

import (
	"math"
	"strings"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

// Snapshot is a derived summary of a user's progress. It is never persisted.
type Snapshot struct {
	SongsLearned         int
	WordsLearned         []string
	LanguagesLearned     []string
	CompletionPercentage float64
	TotalSongs           int
	LearnedSongs         []dal.Song
}

// Compute resolves learned ids against catalog and aggregates the result.
// Ids missing from catalog are skipped. Words and languages keep first-seen order.
func Compute(learned dal.SongIDs, catalog []dal.Song) Snapshot {
	byID := make(map[int64]*dal.Song, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = &catalog[i]
	}

	res := Snapshot{
		WordsLearned:     []string{},
		LanguagesLearned: []string{},
		TotalSongs:       len(catalog),
		LearnedSongs:     []dal.Song{},
	}
	seenWords := make(map[string]struct{})
	seenLanguages := make(map[string]struct{})

	for _, id := range learned {
		song, ok := byID[id]
		if !ok {
			continue
		}
		res.LearnedSongs = append(res.LearnedSongs, *song)

		for _, word := range song.Vocabulary {
			if _, ok = seenWords[word]; !ok {
				seenWords[word] = struct{}{}
				res.WordsLearned = append(res.WordsLearned, word)
			}
		}
		if _, ok = seenLanguages[song.Language]; !ok {
			seenLanguages[song.Language] = struct{}{}
			res.LanguagesLearned = append(res.LanguagesLearned, song.Language)
		}
	}

	res.SongsLearned = len(res.LearnedSongs)
	if res.TotalSongs > 0 {
		res.CompletionPercentage = math.Round(1000*float64(res.SongsLearned)/float64(res.TotalSongs)) / 10 //nolint:mnd // one decimal place
	}

	return res
}

// FilterByLanguage returns songs whose language equals language under Unicode case folding.
func FilterByLanguage(catalog []dal.Song, language string) []dal.Song {
	res := make([]dal.Song, 0, len(catalog))
	for _, song := range catalog {
		if strings.EqualFold(song.Language, language) {
			res = append(res, song)
		}
	}
	return res
}
