package api

import (
	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

type (
	SongSummary struct {
		ID         int64          `json:"id"`
		Title      string         `json:"title"`
		Artist     string         `json:"artist"`
		Language   string         `json:"language"`
		Difficulty dal.Difficulty `json:"difficulty"`
	}

	Song struct {
		SongSummary
		LyricsOriginal    string   `json:"lyrics_original"`
		LyricsTranslation string   `json:"lyrics_translation"`
		Vocabulary        []string `json:"vocabulary"`
		Duration          int      `json:"duration"`
	}

	LanguageSong struct {
		SongSummary
		Duration  int  `json:"duration"`
		IsLearned bool `json:"is_learned"`
	}

	Language struct {
		ID          int64          `json:"id"`
		Name        string         `json:"name"`
		Code        string         `json:"code"`
		Difficulty  dal.Difficulty `json:"difficulty"`
		Description string         `json:"description"`
	}

	Artist struct {
		ID       int64    `json:"id"`
		Name     string   `json:"name"`
		Country  string   `json:"country"`
		Language string   `json:"language"`
		Genres   []string `json:"genres"`
		Bio      string   `json:"bio"`
	}

	Snapshot struct {
		Status               string        `json:"status,omitempty"`
		SongsLearned         int           `json:"songs_learned"`
		WordsLearned         []string      `json:"words_learned"`
		LanguagesLearned     []string      `json:"languages_learned"`
		CompletionPercentage float64       `json:"completion_percentage"`
		TotalSongs           int           `json:"total_songs"`
		LearnedSongs         []SongSummary `json:"learned_songs"`
	}
)

func toSongSummary(s dal.Song) SongSummary {
	return SongSummary{
		ID:         s.ID,
		Title:      s.Title,
		Artist:     s.Artist,
		Language:   s.Language,
		Difficulty: s.Difficulty,
	}
}

func toSong(s dal.Song) Song {
	vocabulary := []string(s.Vocabulary)
	if vocabulary == nil {
		vocabulary = []string{}
	}
	return Song{
		SongSummary:       toSongSummary(s),
		LyricsOriginal:    s.LyricsOriginal,
		LyricsTranslation: s.LyricsTranslation,
		Vocabulary:        vocabulary,
		Duration:          s.Duration,
	}
}

func toLanguage(l dal.Language) Language {
	return Language{
		ID:          l.ID,
		Name:        l.Name,
		Code:        l.Code,
		Difficulty:  l.Difficulty,
		Description: l.Description,
	}
}

func toArtist(a dal.Artist) Artist {
	genres := []string(a.Genres)
	if genres == nil {
		genres = []string{}
	}
	return Artist{
		ID:       a.ID,
		Name:     a.Name,
		Country:  a.Country,
		Language: a.Language,
		Genres:   genres,
		Bio:      a.Bio,
	}
}

func toSnapshot(status string, s progress.Snapshot) Snapshot {
	learned := make([]SongSummary, len(s.LearnedSongs))
	for i, song := range s.LearnedSongs {
		learned[i] = toSongSummary(song)
	}
	return Snapshot{
		Status:               status,
		SongsLearned:         s.SongsLearned,
		WordsLearned:         s.WordsLearned,
		LanguagesLearned:     s.LanguagesLearned,
		CompletionPercentage: s.CompletionPercentage,
		TotalSongs:           s.TotalSongs,
		LearnedSongs:         learned,
	}
}
