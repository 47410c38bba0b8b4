package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

var userColumns = []string{ //nolint:gochecknoglobals // column list shared by user queries
	"id", "email", "password_hash", "learned_songs", "current_language", "is_admin",
	"telegram_chat_id", "version", "created_at", "updated_at",
}

func (r *Repository) AddUser(ctx context.Context, user *dal.User) error {
	if user.LearnedSongs == nil {
		user.LearnedSongs = dal.SongIDs{}
	}
	now := time.Now().Truncate(time.Second)

	query := qb.Insert("users").
		Columns(userColumns[1:]...).
		Values(user.Email, user.PasswordHash, user.LearnedSongs, user.CurrentLanguage, user.IsAdmin,
			nullChatID(user.TelegramChatID), 1, now.Unix(), now.Unix())

	res, err := r.exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("add user: %w", err)
	}

	if user.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("get user id: %w", err)
	}
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

func (r *Repository) FindUser(ctx context.Context, id int64) (*dal.User, error) {
	return r.findUser(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*dal.User, error) {
	return r.findUser(ctx, squirrel.Eq{"email": email})
}

func (r *Repository) FindUserByChatID(ctx context.Context, chatID int64) (*dal.User, error) {
	if chatID == 0 {
		return nil, dal.ErrNotFound
	}
	return r.findUser(ctx, squirrel.Eq{"telegram_chat_id": chatID})
}

func (r *Repository) FindUsers(ctx context.Context, offset, limit uint64) ([]dal.User, int, error) {
	eg, ctx := errgroup.WithContext(ctx)
	var (
		res   []dal.User
		total int
	)

	eg.Go(func() error {
		sqlQuery, args, err := qb.Select(userColumns...).From("users").OrderBy("id").Offset(offset).Limit(limit).ToSql()
		if err != nil {
			return fmt.Errorf("build select query: %w", err)
		}
		res, err = r.queryUsers(ctx, sqlQuery, args)
		return err
	})

	eg.Go(func() error {
		if err := r.client.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	return res, total, nil
}

func (r *Repository) FindLinkedUsers(ctx context.Context) ([]dal.User, error) {
	sqlQuery, args, err := qb.Select(userColumns...).
		From("users").
		Where(squirrel.NotEq{"telegram_chat_id": nil}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.queryUsers(ctx, sqlQuery, args)
}

func (r *Repository) UpdateUser(ctx context.Context, user *dal.User) error {
	now := time.Now().Truncate(time.Second)

	query := qb.Update("users").
		Set("email", user.Email).
		Set("password_hash", user.PasswordHash).
		Set("learned_songs", user.LearnedSongs).
		Set("current_language", user.CurrentLanguage).
		Set("is_admin", user.IsAdmin).
		Set("telegram_chat_id", nullChatID(user.TelegramChatID)).
		Set("version", user.Version+1).
		Set("updated_at", now.Unix()).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version})

	res, err := r.exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		if _, err = r.FindUser(ctx, user.ID); err != nil {
			return err
		}
		return dal.ErrConflict
	}

	user.Version++
	user.UpdatedAt = now
	return nil
}

// DeleteUser removes the user together with its link codes.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.transact(ctx, func(tx *Repository) error {
		res, err := tx.exec(ctx, qb.Delete("users").Where(squirrel.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err = requireAffected(res); err != nil {
			return err
		}

		if _, err = tx.exec(ctx, qb.Delete("link_codes").Where(squirrel.Eq{"user_id": id})); err != nil {
			return fmt.Errorf("delete user link codes: %w", err)
		}

		return nil
	})
}

func (r *Repository) findUser(ctx context.Context, where squirrel.Sqlizer) (*dal.User, error) {
	sqlQuery, args, err := qb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user, err := hydrateUser(r.client.QueryRowContext(ctx, sqlQuery, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dal.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

func (r *Repository) queryUsers(ctx context.Context, sqlQuery string, args []any) ([]dal.User, error) {
	rows, err := r.client.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	var res []dal.User
	for rows.Next() {
		user, err := hydrateUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return res, nil
}

func hydrateUser(row scanner) (*dal.User, error) {
	var (
		u                    dal.User
		chatID               sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.LearnedSongs,
		&u.CurrentLanguage,
		&u.IsAdmin,
		&chatID,
		&u.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.TelegramChatID = chatID.Int64
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

func nullChatID(chatID int64) sql.NullInt64 {
	return sql.NullInt64{Int64: chatID, Valid: chatID != 0}
}
