package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

var ErrUnknownLanguage = errors.New("unknown language")

type SeedResult struct {
	Languages int
	Artists   int
	Songs     int
}

// SaveSong adds the song or updates the one with the same title and artist.
// Lyrics of an existing song are kept. It reports whether a new song was created.
func SaveSong(ctx context.Context, repo dal.CatalogRepository, line Line) (bool, error) {
	lang, err := repo.FindLanguage(ctx, line.Language)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", ErrUnknownLanguage, line.Language)
		}
		return false, fmt.Errorf("find language: %w", err)
	}

	song, err := repo.FindSongByTitle(ctx, line.Title, line.Artist)
	switch {
	case errors.Is(err, dal.ErrNotFound):
		song = &dal.Song{Title: line.Title, Artist: line.Artist}
	case err != nil:
		return false, fmt.Errorf("find song: %w", err)
	}

	song.Language = lang.Code
	song.Difficulty = line.Difficulty
	song.Duration = line.Duration
	song.Vocabulary = line.Vocabulary

	if song.ID != 0 {
		if err = repo.UpdateSong(ctx, song); err != nil {
			return false, fmt.Errorf("update song: %w", err)
		}
		return false, nil
	}

	if err = repo.AddSong(ctx, song); err != nil {
		return false, fmt.Errorf("add song: %w", err)
	}
	return true, nil
}

// Seed inserts the default catalog. Entries that already exist are left untouched.
func Seed(ctx context.Context, repo dal.CatalogRepository) (SeedResult, error) {
	var res SeedResult

	for _, lang := range defaultLanguages() {
		err := repo.AddLanguage(ctx, &lang)
		switch {
		case err == nil:
			res.Languages++
		case !errors.Is(err, dal.ErrAlreadyExists):
			return res, fmt.Errorf("add language %s: %w", lang.Code, err)
		}
	}

	existing, err := repo.FindArtists(ctx)
	if err != nil {
		return res, fmt.Errorf("find artists: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		known[a.Name] = struct{}{}
	}
	for _, artist := range defaultArtists() {
		if _, ok := known[artist.Name]; ok {
			continue
		}
		if err = repo.SaveArtist(ctx, &artist); err != nil {
			return res, fmt.Errorf("save artist %s: %w", artist.Name, err)
		}
		res.Artists++
	}

	for _, song := range defaultSongs() {
		_, err = repo.FindSongByTitle(ctx, song.Title, song.Artist)
		if err == nil {
			continue
		}
		if !errors.Is(err, dal.ErrNotFound) {
			return res, fmt.Errorf("find song %s: %w", song.Title, err)
		}
		if err = repo.AddSong(ctx, &song); err != nil {
			return res, fmt.Errorf("add song %s: %w", song.Title, err)
		}
		res.Songs++
	}

	return res, nil
}

func defaultLanguages() []dal.Language {
	return []dal.Language{
		{Name: "English", Code: "en", Difficulty: dal.DifficultyBeginner, Description: "The most popular language to learn"},
		{Name: "Korean", Code: "ko", Difficulty: dal.DifficultyAdvanced, Description: "A popular Asian language"},
		{Name: "French", Code: "fr", Difficulty: dal.DifficultyIntermediate, Description: "The language of love and romance"},
	}
}

func defaultArtists() []dal.Artist {
	return []dal.Artist{
		{Name: "The Beatles", Country: "United Kingdom", Language: "en", Genres: dal.Strings{"rock", "pop"}, Bio: "Legendary British rock band"},
		{Name: "BTS", Country: "South Korea", Language: "ko", Genres: dal.Strings{"k-pop", "pop"}, Bio: "South Korean boy band"},
		{Name: "Kate Ryan", Country: "Belgium", Language: "fr", Genres: dal.Strings{"pop", "dance"}, Bio: "Belgian singer"},
		{Name: "Édith Piaf", Country: "France", Language: "fr", Genres: dal.Strings{"chanson", "traditional"}, Bio: "Famous French singer"},
		{Name: "Imagine Dragons", Country: "United States", Language: "en", Genres: dal.Strings{"rock", "pop"}, Bio: "American pop rock band"},
	}
}

func defaultSongs() []dal.Song {
	return []dal.Song{
		{
			Title:    "Yesterday",
			Artist:   "The Beatles",
			Language: "en",
			LyricsOriginal: "Yesterday, all my troubles seemed so far away\n" +
				"Now it looks as though they're here to stay\n" +
				"Oh, I believe in yesterday",
			LyricsTranslation: "Вчера все мои проблемы казались такими далекими\n" +
				"Теперь похоже, что они останутся здесь\n" +
				"О, я верю во вчера",
			Difficulty: dal.DifficultyBeginner,
			Vocabulary: dal.Strings{"yesterday", "troubles", "far away", "believe", "stay"},
			Duration:   125,
		},
		{
			Title:    "Spring Day",
			Artist:   "BTS",
			Language: "ko",
			LyricsOriginal: "보고 싶다\n" +
				"이렇게 말하니까 더 보고 싶다\n" +
				"너희 사진을 보고 있어도\n" +
				"보고 싶다",
			LyricsTranslation: "Скучаю по вам\n" +
				"Когда говорю это, скучаю еще больше\n" +
				"Даже глядя на ваше фото\n" +
				"Скучаю по вам",
			Difficulty: dal.DifficultyIntermediate,
			Vocabulary: dal.Strings{"보고 싶다", "말하니까", "사진", "봄", "눈", "친구"},
			Duration:   265,
		},
		{
			Title:    "Voyage voyage",
			Artist:   "Kate Ryan",
			Language: "fr",
			LyricsOriginal: "Voyage, voyage\n" +
				"Plus loin que la nuit et le jour\n" +
				"Voyage, voyage\n" +
				"Dans l'espace inouï de l'amour",
			LyricsTranslation: "Путешествуй, путешествуй\n" +
				"Дальше, чем ночь и день\n" +
				"Путешествуй, путешествуй\n" +
				"В невероятное пространство любви",
			Difficulty: dal.DifficultyIntermediate,
			Vocabulary: dal.Strings{"voyage", "nuit", "jour", "espace", "inouï", "amour", "rêve"},
			Duration:   235,
		},
		{
			Title:    "Non, je ne regrette rien",
			Artist:   "Édith Piaf",
			Language: "fr",
			LyricsOriginal: "Non, je ne regrette rien\n" +
				"Ni le bien qu'on m'a fait\n" +
				"Ni le mal, tout ça m'est bien égal\n" +
				"Non, rien de rien, non, je ne regrette rien",
			LyricsTranslation: "Нет, я ни о чем не сожалею\n" +
				"Ни о хорошем, что мне сделали\n" +
				"Ни о плохом, мне все совершенно безразлично\n" +
				"Нет, ни о чем, нет, я ни о чем не сожалею",
			Difficulty: dal.DifficultyIntermediate,
			Vocabulary: dal.Strings{"non", "regrette", "rien", "bien", "mal", "égal", "cœur", "amour", "larmes"},
			Duration:   142,
		},
		{
			Title:    "Human",
			Artist:   "Imagine Dragons",
			Language: "en",
			LyricsOriginal: "I'm only human, I make mistakes\n" +
				"I'm only human, that's all it takes\n" +
				"To put the blame in the right place",
			LyricsTranslation: "Я всего лишь человек, я совершаю ошибки\n" +
				"Я всего лишь человек, это все, что нужно\n" +
				"Чтобы возложить вину на нужное место",
			Difficulty: dal.DifficultyBeginner,
			Vocabulary: dal.Strings{"human", "mistakes", "blame", "right place", "broken"},
			Duration:   245,
		},
		{
			Title:    "Life Goes On",
			Artist:   "BTS",
			Language: "en",
			LyricsOriginal: "Life goes on like an echo in the forest\n" +
				"Life goes on like the breeze in the meadow\n" +
				"Does life go on? Yeah, life goes on",
			LyricsTranslation: "Жизнь продолжается, как эхо в лесу\n" +
				"Жизнь продолжается, как ветерок на лугу\n" +
				"Жизнь продолжается? Да, жизнь продолжается",
			Difficulty: dal.DifficultyBeginner,
			Vocabulary: dal.Strings{"life", "goes on", "echo", "forest", "breeze", "meadow"},
			Duration:   213,
		},
	}
}
