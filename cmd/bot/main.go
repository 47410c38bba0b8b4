package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/linguatune/internal/config"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
	"github.com/Roma7-7-7/linguatune/internal/progress"
	"github.com/Roma7-7-7/linguatune/internal/schedule"
	"github.com/Roma7-7-7/linguatune/internal/telegram"
)

var (
	// Version is set via -ldflags at build time
	Version = "dev" //nolint:gochecknoglobals // must be global to be replaced at build time
	// BuildTime is set via -ldflags at build time
	BuildTime = "unknown" //nolint:gochecknoglobals // must be global to be replaced at build time
)

const (
	exitCodeOK int = iota
	exitCodeConfigParse
	exitCodeDBConnect
	exitCodeBotCreate
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	go func() {
		<-sigs
		cancel()
	}()
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	if err := config.LoadDotEnv(); err != nil {
		slog.ErrorContext(ctx, "failed to load .env", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}

	conf, err := config.NewBot(ctx, config.FetchAWSParams)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get config", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}

	log := mustLogger(conf.Dev)
	loc := conf.DigestSchedule.MustTimeLocation()

	log.InfoContext(ctx, "starting bot",
		"version", Version,
		"build_time", BuildTime,
		"config", loggableConfig(conf),
		"current_time_in_location", time.Now().In(loc),
	)
	defer log.InfoContext(ctx, "bot is stopped")

	db, err := sqlrepo.Open(ctx, conf.DB.Path)
	if err != nil {
		log.ErrorContext(ctx, "failed to open database", "error", err, "path", conf.DB.Path)
		return exitCodeDBConnect
	}
	defer db.Close()

	repo := sqlrepo.NewRepository(ctx, db, log)
	engine := progress.NewEngine(repo, log)

	bot, err := telegram.NewBot(conf.TelegramToken, repo, engine, log, telegram.Recover(log), telegram.LogErrors(log))
	if err != nil {
		log.ErrorContext(ctx, "failed to create bot", "error", err)
		return exitCodeBotCreate
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bot.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		schedule.StartDigestSchedule(gCtx, schedule.DigestConfig{
			Hour:     conf.DigestSchedule.Hour,
			Location: loc,
			Interval: time.Minute,
		}, repo, bot, log)
		return nil
	})

	if err = g.Wait(); err != nil {
		log.ErrorContext(ctx, "bot stopped with error", "error", err)
	}

	return exitCodeOK
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

func loggableConfig(conf *config.Bot) map[string]any {
	return map[string]any{
		"dev":     conf.Dev,
		"db_path": conf.DB.Path,
		"digest_schedule": map[string]any{
			"hour":     conf.DigestSchedule.Hour,
			"location": conf.DigestSchedule.Location,
		},
	}
}
