package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/linguatune/internal/config"
	"github.com/Roma7-7-7/linguatune/internal/dal"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
	"github.com/Roma7-7-7/linguatune/internal/data"
)

var (
	// Version is set via -ldflags at build time
	Version = "dev" //nolint:gochecknoglobals // must be global to be replaced at build time
)

const (
	exitCodeOK int = iota
	exitCodeConfigParse
	exitCodeFailed
)

type runner struct {
	conf *config.Import
	log  *slog.Logger
}

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	if err := config.LoadDotEnv(); err != nil {
		slog.ErrorContext(ctx, "failed to load .env", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}

	conf, err := config.NewImport()
	if err != nil {
		slog.ErrorContext(ctx, "failed to get config", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}

	r := &runner{conf: conf, log: mustLogger(conf.Dev)}

	app := &cli.Command{
		Name:    "import",
		Usage:   "Manage the LinguaTune catalog",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the SQLite database, overrides IMPORT_DB_PATH",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Insert the default languages, artists and songs",
				Action: r.seed,
			},
			{
				Name:  "songs",
				Usage: "Import songs from a text or xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Usage: "file with songs (.txt or .xlsx)", Required: true},
					&cli.StringFlag{Name: "sheet", Usage: "xlsx sheet name, the first sheet by default"},
				},
				Action: r.songs,
			},
			{
				Name:  "promote",
				Usage: "Grant admin rights to a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "email of the user", Required: true},
				},
				Action: r.promote,
			},
		},
	}

	if err = app.Run(ctx, os.Args); err != nil {
		r.log.ErrorContext(ctx, "import failed", "error", err)
		return exitCodeFailed
	}

	return exitCodeOK
}

func (r *runner) seed(ctx context.Context, cmd *cli.Command) error {
	return r.withRepo(ctx, cmd, func(repo *sqlrepo.Repository) error {
		var res data.SeedResult
		err := repo.Transact(ctx, func(tx dal.Repository) error {
			var err error
			res, err = data.Seed(ctx, tx)
			return err
		})
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}

		r.log.InfoContext(ctx, "catalog seeded", "languages", res.Languages, "artists", res.Artists, "songs", res.Songs)
		return nil
	})
}

func (r *runner) songs(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")

	return r.withRepo(ctx, cmd, func(repo *sqlrepo.Repository) error {
		lines := make(chan data.Line)

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if strings.EqualFold(filepath.Ext(source), ".xlsx") {
				return data.ReadXLSX(gCtx, source, cmd.String("sheet"), lines)
			}

			f, err := os.Open(source)
			if err != nil {
				close(lines)
				return fmt.Errorf("open source: %w", err)
			}
			return data.Parse(gCtx, f, lines)
		})

		created, updated, failed := 0, 0, 0
		for line := range lines {
			isNew, err := data.SaveSong(ctx, repo, line)
			switch {
			case err != nil:
				failed++
				r.log.ErrorContext(ctx, "failed to save song", "title", line.Title, "artist", line.Artist, "error", err)
			case isNew:
				created++
			default:
				updated++
			}
		}

		err := g.Wait()
		r.log.InfoContext(ctx, "songs imported", "created", created, "updated", updated, "failed", failed)

		var parsingErr *data.ParsingError
		if errors.As(err, &parsingErr) {
			r.log.WarnContext(ctx, "some lines were skipped", "invalid_lines", parsingErr.InvalidLines)
			return nil
		}
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d songs were not saved", failed)
		}
		return nil
	})
}

func (r *runner) promote(ctx context.Context, cmd *cli.Command) error {
	email := strings.ToLower(strings.TrimSpace(cmd.String("email")))

	return r.withRepo(ctx, cmd, func(repo *sqlrepo.Repository) error {
		err := repo.Transact(ctx, func(tx dal.Repository) error {
			user, err := tx.FindUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("find user %s: %w", email, err)
			}
			if user.IsAdmin {
				return nil
			}
			user.IsAdmin = true
			return tx.UpdateUser(ctx, user)
		})
		if err != nil {
			return err
		}

		r.log.InfoContext(ctx, "user promoted to admin", "email", email)
		return nil
	})
}

func (r *runner) withRepo(ctx context.Context, cmd *cli.Command, fn func(repo *sqlrepo.Repository) error) error {
	path := r.conf.DB.Path
	if p := cmd.String("db"); p != "" {
		path = p
	}

	db, err := sqlrepo.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", path, err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return fn(sqlrepo.NewRepository(ctx, db, r.log))
}

func mustLogger(dev bool) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}
