// Package main implements the entry point for the Scry quiz server, which
// tracks learners' progress through question levels and schedules reviews of
// missed questions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/config"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a database migration command (up, down, reset, status, version) and exit")
	invalidate := flag.String("invalidate-levels", "",
		"comma-separated levels whose cached question content is dropped from redis, then exit")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd, *invalidate); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// run loads configuration, sets up logging and either executes a one-off
// maintenance command or serves HTTP until shutdown.
func run(ctx context.Context, migrateCmd, invalidateLevels string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, appLogger)
	}
	if invalidateLevels != "" {
		levels, err := parseLevels(invalidateLevels)
		if err != nil {
			return err
		}
		return invalidatePoolCache(ctx, cfg, levels, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from environment
// variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_driver", cfg.Storage.Driver)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true)
	}
	if cfg.Redis.Addr != "" {
		slog.Debug("Redis configuration", "addr_present", true)
	}

	return cfg, nil
}
