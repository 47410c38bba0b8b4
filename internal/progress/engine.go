package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", dal.ErrNotFound)
	ErrSongNotFound = fmt.Errorf("song %w", dal.ErrNotFound)
	ErrNotLearned   = errors.New("song is not learned")
)

type (
	MarkResult struct {
		Snapshot
		AlreadyLearned bool
	}

	Engine struct {
		repo dal.Repository
		log  *slog.Logger
	}
)

func NewEngine(repo dal.Repository, log *slog.Logger) *Engine {
	return &Engine{repo: repo, log: log}
}

// MarkLearned adds songID to the user's learned songs. Marking a learned song again writes nothing.
func (e *Engine) MarkLearned(ctx context.Context, userID, songID int64) (MarkResult, error) {
	var res MarkResult

	err := e.repo.Transact(ctx, func(r dal.Repository) error {
		user, err := findUser(ctx, r, userID)
		if err != nil {
			return err
		}

		if _, err = r.FindSong(ctx, songID); err != nil {
			if errors.Is(err, dal.ErrNotFound) {
				return ErrSongNotFound
			}
			return fmt.Errorf("find song: %w", err)
		}

		if user.LearnedSongs.Add(songID) {
			if err = r.UpdateUser(ctx, user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			e.log.DebugContext(ctx, "song marked learned", "user_id", userID, "song_id", songID)
		} else {
			res.AlreadyLearned = true
		}

		res.Snapshot, err = compute(ctx, r, user)
		return err
	})
	if err != nil {
		return MarkResult{}, err
	}

	return res, nil
}

// UnmarkLearned removes songID from the user's learned songs.
// The song does not have to exist in the catalog anymore.
func (e *Engine) UnmarkLearned(ctx context.Context, userID, songID int64) (Snapshot, error) {
	var res Snapshot

	err := e.repo.Transact(ctx, func(r dal.Repository) error {
		user, err := findUser(ctx, r, userID)
		if err != nil {
			return err
		}

		if !user.LearnedSongs.Remove(songID) {
			return ErrNotLearned
		}
		if err = r.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		e.log.DebugContext(ctx, "song unmarked learned", "user_id", userID, "song_id", songID)

		res, err = compute(ctx, r, user)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	return res, nil
}

func (e *Engine) Snapshot(ctx context.Context, userID int64) (Snapshot, error) {
	user, err := findUser(ctx, e.repo, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return compute(ctx, e.repo, user)
}

func (e *Engine) SongsByLanguage(ctx context.Context, language string) ([]dal.Song, error) {
	catalog, err := e.repo.AllSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	return FilterByLanguage(catalog, language), nil
}

func findUser(ctx context.Context, r dal.UsersRepository, userID int64) (*dal.User, error) {
	user, err := r.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func compute(ctx context.Context, r dal.CatalogRepository, user *dal.User) (Snapshot, error) {
	catalog, err := r.AllSongs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get catalog: %w", err)
	}
	return Compute(user.LearnedSongs, catalog), nil
}
