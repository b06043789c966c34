// Package main implements the entry point for the talent API server
// which orchestrates background resume parsing, AI job matching, and
// AI content generation tasks.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/hirewire/talent-api/internal/config"
	"github.com/hirewire/talent-api/internal/platform/logger"
)

// main initializes configuration, logging, the database connection, and the
// application dependency graph, then runs the HTTP server until shutdown.
func main() {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"dispatch_interval_seconds", cfg.Task.DispatchIntervalSeconds,
		"reaper_interval_seconds", cfg.Task.ReaperIntervalSeconds)

	return cfg, appLogger, nil
}
