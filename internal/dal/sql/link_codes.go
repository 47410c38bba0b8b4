package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

func (r *Repository) InsertLinkCode(ctx context.Context, userID int64, code string, expiresIn time.Duration) error {
	if userID == 0 {
		return errors.New("user id is required")
	}
	if code == "" {
		return errors.New("code is required")
	}
	if expiresIn <= 0 {
		return errors.New("expires in is required")
	}

	query := qb.Insert("link_codes").
		Columns("code", "user_id", "expires_at").
		Values(code, userID, time.Now().Add(expiresIn).Unix())

	if _, err := r.exec(ctx, query); err != nil {
		if isUniqueViolation(err) {
			return dal.ErrAlreadyExists
		}
		return fmt.Errorf("insert link code: %w", err)
	}

	return nil
}

func (r *Repository) ConsumeLinkCode(ctx context.Context, code string) (int64, error) {
	query := qb.Delete("link_codes").
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Gt{"expires_at": time.Now().Unix()}).
		Suffix("RETURNING user_id")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var userID int64
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, dal.ErrNotFound
		}
		return 0, fmt.Errorf("consume link code: %w", err)
	}

	return userID, nil
}

func (r *Repository) deleteExpiredLinkCodes(ctx context.Context) (int64, error) {
	res, err := r.exec(ctx, qb.Delete("link_codes").Where(squirrel.LtOrEq{"expires_at": time.Now().Unix()}))
	if err != nil {
		return 0, fmt.Errorf("delete expired link codes: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) cleanupLinkCodes(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Hour):
			deleted, err := r.deleteExpiredLinkCodes(ctx)
			if err != nil {
				r.log.ErrorContext(ctx, "failed to cleanup link codes", "error", err)
				continue
			}
			r.log.DebugContext(ctx, "link codes cleaned up", "deleted", deleted)
		}
	}
}
