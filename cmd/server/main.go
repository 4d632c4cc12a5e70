// Package main is the entry point for the movieflix API server.
//
// main stays minimal:
//  1. Load configuration (defaults → config.yaml → environment)
//  2. Build the logger
//  3. Open the store and hand everything to internal/server
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/movieflix/internal/config"
	"github.com/sakif/movieflix/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No configured logger yet.
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if cfg.Store.Backend == config.BackendSQLite {
		dir := filepath.Dir(cfg.Store.SQLitePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := server.OpenStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("failed to open store",
			slog.String("backend", cfg.Store.Backend),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close(context.Background())
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
