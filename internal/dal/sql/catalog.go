package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

var songColumns = []string{ //nolint:gochecknoglobals // column list shared by song queries
	"id", "title", "artist", "language", "lyrics_original", "lyrics_translation", "difficulty", "vocabulary", "duration",
}

func (r *Repository) FindLanguages(ctx context.Context) ([]dal.Language, error) {
	query := qb.Select("id", "name", "code", "difficulty", "description").
		From("languages").
		OrderBy("id")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.client.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find languages: %w", err)
	}
	defer rows.Close()

	res := make([]dal.Language, 0, 10) //nolint:mnd // a handful of languages is expected
	for rows.Next() {
		var lang dal.Language
		if err = rows.Scan(&lang.ID, &lang.Name, &lang.Code, &lang.Difficulty, &lang.Description); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		res = append(res, lang)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate languages: %w", err)
	}

	return res, nil
}

func (r *Repository) FindLanguage(ctx context.Context, code string) (*dal.Language, error) {
	query := qb.Select("id", "name", "code", "difficulty", "description").
		From("languages").
		Where(squirrel.Eq{"code": code})

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lang dal.Language
	err = r.client.QueryRowContext(ctx, sqlQuery, args...).
		Scan(&lang.ID, &lang.Name, &lang.Code, &lang.Difficulty, &lang.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dal.ErrNotFound
		}
		return nil, fmt.Errorf("find language: %w", err)
	}

	return &lang, nil
}

func (r *Repository) AddLanguage(ctx context.Context, lang *dal.Language) error {
	query := qb.Insert("languages").
		Columns("name", "code", "difficulty", "description").
		Values(lang.Name, lang.Code, lang.Difficulty, lang.Description)

	res, err := r.exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("add language: %w", err)
	}

	if lang.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("get language id: %w", err)
	}

	return nil
}

func (r *Repository) DeleteLanguage(ctx context.Context, id int64) error {
	sqlQuery, args, err := qb.Select("code").From("languages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var code string
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dal.ErrNotFound
		}
		return fmt.Errorf("find language: %w", err)
	}

	used, err := r.countSongs(ctx, code)
	if err != nil {
		return err
	}
	if used > 0 {
		return dal.ErrInUse
	}

	if _, err = r.exec(ctx, qb.Delete("languages").Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("delete language: %w", err)
	}

	return nil
}

func (r *Repository) FindArtists(ctx context.Context) ([]dal.Artist, error) {
	query := qb.Select("id", "name", "country", "language", "genres", "bio").
		From("artists").
		OrderBy("name")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.client.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find artists: %w", err)
	}
	defer rows.Close()

	var res []dal.Artist
	for rows.Next() {
		var a dal.Artist
		if err = rows.Scan(&a.ID, &a.Name, &a.Country, &a.Language, &a.Genres, &a.Bio); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		res = append(res, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}

	return res, nil
}

func (r *Repository) SaveArtist(ctx context.Context, artist *dal.Artist) error {
	query := qb.Insert("artists").
		Columns("name", "country", "language", "genres", "bio").
		Values(artist.Name, artist.Country, artist.Language, artist.Genres, artist.Bio).
		Suffix("ON CONFLICT (name) DO UPDATE SET country = excluded.country, language = excluded.language, genres = excluded.genres, bio = excluded.bio").
		Suffix("RETURNING id")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&artist.ID); err != nil {
		return fmt.Errorf("save artist: %w", err)
	}

	return nil
}

func (r *Repository) AllSongs(ctx context.Context) ([]dal.Song, error) {
	sqlQuery, args, err := qb.Select(songColumns...).From("songs").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.querySongs(ctx, sqlQuery, args)
}

func (r *Repository) FindSong(ctx context.Context, id int64) (*dal.Song, error) {
	return r.findSong(ctx, qb.Select(songColumns...).From("songs").Where(squirrel.Eq{"id": id}))
}

func (r *Repository) FindSongByTitle(ctx context.Context, title, artist string) (*dal.Song, error) {
	return r.findSong(ctx, qb.Select(songColumns...).From("songs").Where(squirrel.Eq{"title": title, "artist": artist}))
}

func (r *Repository) FindSongs(ctx context.Context, filter dal.SongsFilter) ([]dal.Song, int, error) {
	baseQuery := qb.Select().From("songs")

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		baseQuery = baseQuery.Where(squirrel.Or{
			squirrel.Expr("LOWER(title) LIKE ?", pattern),
			squirrel.Expr("LOWER(artist) LIKE ?", pattern),
		})
	}
	if filter.Language != "" {
		baseQuery = baseQuery.Where(squirrel.Expr("language = ? COLLATE NOCASE", filter.Language))
	}
	if filter.Difficulty != "" {
		baseQuery = baseQuery.Where(squirrel.Eq{"difficulty": filter.Difficulty})
	}

	eg, ctx := errgroup.WithContext(ctx)
	var (
		res   []dal.Song
		total int
	)

	eg.Go(func() error {
		sqlQuery, args, err := baseQuery.Columns(songColumns...).
			OrderBy("id").
			Offset(filter.Offset).
			Limit(filter.Limit).
			ToSql()
		if err != nil {
			return fmt.Errorf("build select query: %w", err)
		}

		res, err = r.querySongs(ctx, sqlQuery, args)
		return err
	})

	eg.Go(func() error {
		sqlQuery, args, err := baseQuery.Columns("COUNT(*)").ToSql()
		if err != nil {
			return fmt.Errorf("build count query: %w", err)
		}

		if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&total); err != nil {
			return fmt.Errorf("count songs: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	return res, total, nil
}

func (r *Repository) AddSong(ctx context.Context, song *dal.Song) error {
	query := qb.Insert("songs").
		Columns(songColumns[1:]...).
		Values(song.Title, song.Artist, song.Language, song.LyricsOriginal, song.LyricsTranslation,
			song.Difficulty, song.Vocabulary, song.Duration)

	res, err := r.exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("add song: %w", err)
	}

	if song.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("get song id: %w", err)
	}

	return nil
}

func (r *Repository) UpdateSong(ctx context.Context, song *dal.Song) error {
	query := qb.Update("songs").
		Set("title", song.Title).
		Set("artist", song.Artist).
		Set("language", song.Language).
		Set("lyrics_original", song.LyricsOriginal).
		Set("lyrics_translation", song.LyricsTranslation).
		Set("difficulty", song.Difficulty).
		Set("vocabulary", song.Vocabulary).
		Set("duration", song.Duration).
		Where(squirrel.Eq{"id": song.ID})

	res, err := r.exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("update song: %w", err)
	}

	return requireAffected(res)
}

func (r *Repository) DeleteSong(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, qb.Delete("songs").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}

	return requireAffected(res)
}

func (r *Repository) GetTotals(ctx context.Context) (*dal.Totals, error) {
	sqlQuery, args, err := qb.Select(
		"(SELECT COUNT(*) FROM users)",
		"(SELECT COUNT(*) FROM songs)",
		"(SELECT COUNT(*) FROM languages)",
		"(SELECT COUNT(*) FROM artists)",
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var res dal.Totals
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&res.Users, &res.Songs, &res.Languages, &res.Artists); err != nil {
		return nil, fmt.Errorf("get totals: %w", err)
	}

	return &res, nil
}

func (r *Repository) countSongs(ctx context.Context, language string) (int, error) {
	sqlQuery, args, err := qb.Select("COUNT(*)").
		From("songs").
		Where(squirrel.Expr("language = ? COLLATE NOCASE", language)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

func (r *Repository) findSong(ctx context.Context, query squirrel.SelectBuilder) (*dal.Song, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	song, err := hydrateSong(r.client.QueryRowContext(ctx, sqlQuery, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dal.ErrNotFound
		}
		return nil, fmt.Errorf("find song: %w", err)
	}

	return song, nil
}

func (r *Repository) querySongs(ctx context.Context, sqlQuery string, args []any) ([]dal.Song, error) {
	rows, err := r.client.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find songs: %w", err)
	}
	defer rows.Close()

	res := make([]dal.Song, 0, 16) //nolint:mnd // reasonable default
	for rows.Next() {
		song, err := hydrateSong(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}

	return res, nil
}

func hydrateSong(row scanner) (*dal.Song, error) {
	var s dal.Song
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Artist,
		&s.Language,
		&s.LyricsOriginal,
		&s.LyricsTranslation,
		&s.Difficulty,
		&s.Vocabulary,
		&s.Duration,
	)
	if err != nil {
		return nil, fmt.Errorf("scan song: %w", err)
	}
	return &s, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return dal.ErrNotFound
	}
	return nil
}
