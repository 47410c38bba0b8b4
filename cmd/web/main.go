package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roma7-7-7/linguatune/internal/config"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
	"github.com/Roma7-7-7/linguatune/internal/web"
)

var (
	// Version is set via -ldflags at build time
	Version = "dev" //nolint:gochecknoglobals // must be global to be replaced at build time
	// BuildTime is set via -ldflags at build time
	BuildTime = "unknown" //nolint:gochecknoglobals // must be global to be replaced at build time
)

const shutdownTimeout = 15 * time.Second

const (
	exitCodeOK int = iota
	exitCodeConfigParse
	exitCodeDBConnect
	exitCodeDependenciesCreate
	exitCodeServerStart
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

	conf, err := config.NewWeb(ctx, config.FetchAWSParams)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get config", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}
	log := mustLogger(conf.Dev)

	db, err := sqlrepo.Open(ctx, conf.DB.Path)
	if err != nil {
		log.ErrorContext(ctx, "failed to open database", "error", err, "path", conf.DB.Path)
		return exitCodeDBConnect
	}
	defer db.Close()

	router := web.NewRouter(ctx, conf, web.Dependencies{
		Repo:   sqlrepo.NewRepository(ctx, db, log),
		Logger: log,
	})
	log.InfoContext(ctx, "starting web server",
		"version", Version,
		"build_time", BuildTime,
		"address", conf.Server.Addr,
	)

	server := &http.Server{
		ReadHeaderTimeout: conf.Server.ReadHeaderTimeout,
		Addr:              conf.Server.Addr,
		Handler:           router,
	}

	go func() {
		<-ctx.Done()
		cCtx, cCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cCancel()

		if sErr := server.Shutdown(cCtx); sErr != nil {
			log.ErrorContext(cCtx, "failed to shutdown web server", "error", sErr)
		}
	}()

	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "failed to start web server", "error", err)
		return exitCodeServerStart
	}

	log.InfoContext(ctx, "web server is stopped")

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
