package views

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

//go:generate templ generate

type (
	// Page holds what the layout needs on every page.
	Page struct {
		Title string
		User  *dal.User
		CSRF  string
		Error string
	}

	IndexData struct {
		Languages []dal.Language
		Snapshot  *progress.Snapshot
	}

	SongRow struct {
		dal.Song
		Learned bool
	}

	SongsData struct {
		Heading    string
		ShowFilter bool
		Search     string
		Language   string
		Difficulty string
		Languages  []dal.Language
		Songs      []SongRow
		Total      int
		PrevURL    string
		NextURL    string
	}

	SongData struct {
		Song    dal.Song
		Learned bool
	}
)

var difficulties = []dal.Difficulty{ //nolint:gochecknoglobals // filter options
	dal.DifficultyBeginner,
	dal.DifficultyIntermediate,
	dal.DifficultyAdvanced,
}

func pageTitle(title string) string {
	if title == "" {
		return "LinguaTune"
	}
	return title + " · LinguaTune"
}

func songURL(id int64) templ.SafeURL {
	return templ.SafeURL("/song/" + strconv.FormatInt(id, 10))
}

func learnURL(id int64) templ.SafeURL {
	return templ.SafeURL("/learn/" + strconv.FormatInt(id, 10))
}

func unlearnURL(id int64) templ.SafeURL {
	return templ.SafeURL("/unlearn/" + strconv.FormatInt(id, 10))
}

func languageURL(code string) templ.SafeURL {
	return templ.URL("/songs/language/" + url.PathEscape(code))
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60) //nolint:mnd // minutes and seconds
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// joinOr joins items with a comma or returns empty when there are none.
func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func summary(s *progress.Snapshot) string {
	return fmt.Sprintf("You have learned %d of %d songs (%s), %d words.",
		s.SongsLearned, s.TotalSongs, formatPercent(s.CompletionPercentage), len(s.WordsLearned))
}

func catalogShare(s progress.Snapshot) string {
	return fmt.Sprintf(" of the catalog (%d of %d songs).", s.SongsLearned, s.TotalSongs)
}

func songMeta(s dal.Song) string {
	return s.Artist + " · " + s.Language + " · "
}

func totalSongs(total int) string {
	return strconv.Itoa(total) + " songs"
}

func wordsHeading(words []string) string {
	return "Words learned (" + strconv.Itoa(len(words)) + ")"
}
