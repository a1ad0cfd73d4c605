package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/C-Radius/ni-watcher/internal/config"
	"github.com/C-Radius/ni-watcher/internal/journal"
	"github.com/C-Radius/ni-watcher/internal/normalize"
	"github.com/C-Radius/ni-watcher/internal/rolling"
	"github.com/C-Radius/ni-watcher/internal/watcher"
)

func main() {
	// A missing .env is fine; settings may come from the environment
	// directly.
	_ = godotenv.Load()
	cfg := config.FromEnv()

	sink, err := rolling.Open(cfg.LogDir, cfg.LogMaxBytes, cfg.LogMaxSegments)
	if err != nil {
		log.Fatalf("failed to open log sink: %v", err)
	}
	defer sink.Close()

	logger := zerolog.New(zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr},
		sink,
	)).With().Timestamp().Logger()

	normalizer, err := normalize.New(normalize.Options{
		Format:           cfg.OutputFormat,
		CanvasWidth:      cfg.CanvasWidth,
		CanvasHeight:     cfg.CanvasHeight,
		Padding:          cfg.Padding,
		Tolerance:        cfg.Tolerance,
		JPEGQuality:      cfg.JPEGQuality,
		DecodeAttempts:   cfg.DecodeAttempts,
		DecodeRetryDelay: cfg.DecodeRetryDelay,
		Logger:           logger.With().Str("component", "normalize").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid normalizer configuration")
	}

	backend, err := journal.BuildBackendFromDSN(cfg.JournalDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid journal configuration")
	}
	defer backend.Close()

	service, err := watcher.NewService(watcher.Options{
		Folder:         cfg.WatchFolder,
		DebounceWindow: cfg.DebounceWindow,
		SuppressWindow: cfg.SuppressWindow,
		WatchWrites:    cfg.WatchWrites,
		Normalizer:     normalizer,
		Journal:        backend,
		Logger:         logger.With().Str("component", "watcher").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid watcher configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("watch service failed")
	}
}
