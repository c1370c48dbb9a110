package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"careermap/internal/api"
	"careermap/internal/config"
	"careermap/internal/engine"
)

func main() {
	// 1. Config (.env is optional)
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 2. Initialize Echo with no data
	// The API is live right away but data routes return 503 until the load finishes.
	e := api.NewEcho(true)
	h := api.NewHandler(nil, cfg.MaxSessions, logger)
	h.RegisterRoutes(e)

	// 3. Load in the background
	go func() {
		logger.Info("loading dataset", "taxonomy", cfg.TaxonomyPath, "counts", cfg.CountsPath)
		t0 := time.Now()

		table, err := engine.Load(cfg.TaxonomyPath, cfg.CountsPath, logger)
		if err != nil {
			// No partial table is ever published.
			logger.Error("dataset load failed", "error", err)
			os.Exit(1)
		}
		h.SetData(table)

		logger.Info("dataset ready", "elapsed", time.Since(t0))
	}()

	// 4. Start Server
	logger.Info("server listening", "addr", cfg.Addr)
	if err := e.Start(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
