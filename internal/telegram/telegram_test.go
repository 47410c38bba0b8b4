package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		val     string
		want    callbackData
		wantErr bool
	}{
		{name: "learn", val: "callback#learn:12", want: callbackData{Action: callbackLearn, SongID: 12}},
		{name: "unlearn with spaces", val: " callback#unlearn:3 ", want: callbackData{Action: callbackUnlearn, SongID: 3}},
		{name: "no id", val: "callback#learn", wantErr: true},
		{name: "bad id", val: "callback#learn:abc", wantErr: true},
		{name: "zero id", val: "callback#learn:0", wantErr: true},
		{name: "too many parts", val: "callback#learn:1:2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCallbackData(tt.val)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSongMarkup(t *testing.T) {
	m := songMarkup(7, false)
	require.Len(t, m.InlineKeyboard, 1)
	require.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "callback#learn:7", m.InlineKeyboard[0][0].Data)

	m = songMarkup(7, true)
	assert.Equal(t, "callback#unlearn:7", m.InlineKeyboard[0][0].Data)

	data, err := parseCallbackData(m.InlineKeyboard[0][0].Data)
	require.NoError(t, err)
	assert.Equal(t, callbackData{Action: callbackUnlearn, SongID: 7}, data)
}

func TestSongIDArg(t *testing.T) {
	id, ok := songIDArg(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, payload := range []string{"", "x", "-1", "0"} {
		_, ok = songIDArg(payload)
		assert.False(t, ok, payload)
	}
}

func TestFormatProgress(t *testing.T) {
	s := progress.Snapshot{
		SongsLearned:         2,
		WordsLearned:         []string{"love", "amour", "heart"},
		LanguagesLearned:     []string{"en", "fr"},
		CompletionPercentage: 66.7,
		TotalSongs:           3,
		LearnedSongs: []dal.Song{
			{ID: 1, Title: "Yesterday", Artist: "The Beatles"},
			{ID: 3, Title: "Voyage voyage", Artist: "Desireless"},
		},
	}

	msg, err := formatProgress(s)
	require.NoError(t, err)
	assert.Contains(t, msg, "Progress: 66.7% (2 of 3 songs)")
	assert.Contains(t, msg, "Words learned: 3")
	assert.Contains(t, msg, "Languages: en, fr")
	assert.Contains(t, msg, "#1 Yesterday · The Beatles")
	assert.Contains(t, msg, "#3 Voyage voyage · Desireless")

	msg, err = formatProgress(progress.Snapshot{WordsLearned: []string{}, LanguagesLearned: []string{}, LearnedSongs: []dal.Song{}})
	require.NoError(t, err)
	assert.Contains(t, msg, "Progress: 0.0% (0 of 0 songs)")
	assert.NotContains(t, msg, "Languages:")
	assert.NotContains(t, msg, "Learned songs:")
}

func TestFormatDigest(t *testing.T) {
	msg, err := formatDigest(progress.Snapshot{SongsLearned: 1, TotalSongs: 4, CompletionPercentage: 25, WordsLearned: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Contains(t, msg, "You have learned 1 of 4 songs (25.0%) and 2 words.")
	assert.Contains(t, msg, "/songs")

	msg, err = formatDigest(progress.Snapshot{SongsLearned: 4, TotalSongs: 4, CompletionPercentage: 100})
	require.NoError(t, err)
	assert.Contains(t, msg, "every song in the catalog")
}

func TestFormatSongs(t *testing.T) {
	songs := []dal.Song{
		{ID: 1, Title: "Yesterday", Artist: "The Beatles", Difficulty: dal.DifficultyBeginner},
		{ID: 2, Title: "Human", Artist: "Rag'n'Bone Man", Difficulty: dal.DifficultyIntermediate},
	}

	msg := formatSongs(songs, dal.SongIDs{2}, "en")
	assert.True(t, strings.HasPrefix(msg, "Songs in en:\n"))
	assert.Contains(t, msg, "#1 Yesterday · The Beatles [beginner]\n")
	assert.Contains(t, msg, "#2 Human · Rag'n'Bone Man [intermediate] ✅\n")

	assert.Equal(t, "no songs in de", formatSongs(nil, nil, "de"))
	assert.Equal(t, "no songs yet", formatSongs(nil, nil, ""))

	many := make([]dal.Song, maxListedSongs+5)
	for i := range many {
		many[i] = dal.Song{ID: int64(i + 1), Title: "T", Artist: "A"}
	}
	assert.Contains(t, formatSongs(many, nil, ""), "...and 5 more")
}

func TestFormatSong(t *testing.T) {
	s := &dal.Song{
		ID:                1,
		Title:             "Yesterday",
		Artist:            "The Beatles",
		Language:          "en",
		Difficulty:        dal.DifficultyBeginner,
		Duration:          125,
		LyricsOriginal:    "Yesterday, all my troubles seemed so far away",
		LyricsTranslation: "Вчера все мои проблемы казались такими далекими",
		Vocabulary:        dal.Strings{"yesterday", "troubles"},
	}

	msg := formatSong(s, true)
	assert.Contains(t, msg, "Yesterday · The Beatles\n")
	assert.Contains(t, msg, "en · beginner · 2:05 · learned ✅")
	assert.Contains(t, msg, "Translation:\nВчера")
	assert.Contains(t, msg, "Vocabulary: yesterday, troubles")

	assert.NotContains(t, formatSong(s, false), "learned ✅")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abc", 2))
	assert.Equal(t, "Вч…", truncate("Вчера", 2))
}

func TestReplyFor(t *testing.T) {
	assert.Equal(t, "song not found", replyFor(progress.ErrSongNotFound))
	assert.Equal(t, "this song is not learned", replyFor(progress.ErrNotLearned))
	assert.Equal(t, somethingWentWrongMsg, replyFor(assert.AnError))
}
