package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

const (
	maxListedSongs = 30
	maxLyricsChars = 1500

	notLinkedMessage = "this chat is not linked yet. Create a code on your profile and send /link <code>"
	helpMessage      = `Hi! I'm LinguaTune bot. I help you learn languages through music.

/link <code> - link this chat to your account
/progress - your learning progress
/songs [language] - list songs, optionally in one language
/song <id> - lyrics, translation and vocabulary
/learn <id> - mark a song as learned
/unlearn <id> - remove a song from learned
/unlink - unlink this chat`
)

var funcs = template.FuncMap{ //nolint:gochecknoglobals // template helpers
	"percent": formatPercent,
	"join":    strings.Join,
}

var progressTemplate = template.Must(template.New("progress").Funcs(funcs). //nolint:gochecknoglobals // parsed once
	Parse(`Progress: {{percent .CompletionPercentage}} ({{.SongsLearned}} of {{.TotalSongs}} songs)
Words learned: {{len .WordsLearned}}
{{- if .LanguagesLearned}}
Languages: {{join .LanguagesLearned ", "}}
{{- end}}
{{- if .LearnedSongs}}

Learned songs:
{{- range .LearnedSongs}}
#{{.ID}} {{.Title}} · {{.Artist}}
{{- end}}
{{- end}}
`))

var digestTemplate = template.Must(template.New("digest").Funcs(funcs). //nolint:gochecknoglobals // parsed once
	Parse(`Daily digest 🎵
You have learned {{.SongsLearned}} of {{.TotalSongs}} songs ({{percent .CompletionPercentage}}) and {{len .WordsLearned}} words.
{{- if lt .SongsLearned .TotalSongs}}
Pick your next song with /songs
{{- else}}
You have learned every song in the catalog!
{{- end}}
`))

func formatProgress(s progress.Snapshot) (string, error) {
	buff := &strings.Builder{}
	if err := progressTemplate.Execute(buff, s); err != nil {
		return "", fmt.Errorf("execute progress template: %w", err)
	}
	return buff.String(), nil
}

func formatDigest(s progress.Snapshot) (string, error) {
	buff := &strings.Builder{}
	if err := digestTemplate.Execute(buff, s); err != nil {
		return "", fmt.Errorf("execute digest template: %w", err)
	}
	return buff.String(), nil
}

func formatCompletion(s progress.Snapshot) string {
	return fmt.Sprintf("Progress: %s (%d of %d songs)", formatPercent(s.CompletionPercentage), s.SongsLearned, s.TotalSongs)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func formatSongs(songs []dal.Song, learned dal.SongIDs, language string) string {
	if len(songs) == 0 {
		if language != "" {
			return "no songs in " + language
		}
		return "no songs yet"
	}

	buff := &strings.Builder{}
	if language != "" {
		fmt.Fprintf(buff, "Songs in %s:\n", language)
	} else {
		buff.WriteString("Songs:\n")
	}

	for i, s := range songs {
		if i == maxListedSongs {
			fmt.Fprintf(buff, "...and %d more\n", len(songs)-maxListedSongs)
			break
		}
		mark := ""
		if learned.Contains(s.ID) {
			mark = " ✅"
		}
		fmt.Fprintf(buff, "#%d %s · %s [%s]%s\n", s.ID, s.Title, s.Artist, s.Difficulty, mark)
	}
	buff.WriteString("\nOpen a song with /song <id>")

	return buff.String()
}

func formatSong(s *dal.Song, learned bool) string {
	buff := &strings.Builder{}
	fmt.Fprintf(buff, "%s · %s\n", s.Title, s.Artist)
	fmt.Fprintf(buff, "%s · %s · %d:%02d", s.Language, s.Difficulty, s.Duration/60, s.Duration%60) //nolint:mnd // minutes and seconds
	if learned {
		buff.WriteString(" · learned ✅")
	}
	buff.WriteString("\n")

	if s.LyricsOriginal != "" {
		fmt.Fprintf(buff, "\n%s\n", truncate(s.LyricsOriginal, maxLyricsChars))
	}
	if s.LyricsTranslation != "" {
		fmt.Fprintf(buff, "\nTranslation:\n%s\n", truncate(s.LyricsTranslation, maxLyricsChars))
	}
	if len(s.Vocabulary) > 0 {
		fmt.Fprintf(buff, "\nVocabulary: %s\n", strings.Join(s.Vocabulary, ", "))
	}

	return buff.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
