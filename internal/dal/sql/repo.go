package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

//go:embed migrations/*.sql
var migrations embed.FS

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question) //nolint:gochecknoglobals // stateless builder

type (
	Client interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	Repository struct {
		db     *sql.DB // nil inside a transaction
		client Client
		log    *slog.Logger
	}
)

// Open opens the SQLite database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err = Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migrations provider: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func NewRepository(ctx context.Context, db *sql.DB, log *slog.Logger) *Repository {
	res := &Repository{db: db, client: db, log: log}
	go res.cleanupLinkCodes(ctx)
	return res
}

func (r *Repository) Transact(ctx context.Context, txFunc func(r dal.Repository) error) error {
	return r.transact(ctx, func(tx *Repository) error {
		return txFunc(tx)
	})
}

// transact reuses the transaction r is already bound to.
func (r *Repository) transact(ctx context.Context, txFunc func(tx *Repository) error) error {
	if r.db == nil {
		return txFunc(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // ignore rollback errors

	if err = txFunc(&Repository{client: tx, log: r.log}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *Repository) exec(ctx context.Context, query squirrel.Sqlizer) (sql.Result, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.client.ExecContext(ctx, sqlQuery, args...)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

type scanner interface {
	Scan(dest ...any) error
}
