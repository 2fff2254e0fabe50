package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/scry-quiz/internal/config"
	"github.com/phrazzld/scry-quiz/internal/platform/memory"
	"github.com/phrazzld/scry-quiz/internal/platform/postgres"
	"github.com/phrazzld/scry-quiz/internal/platform/redis"
)

// Storage drivers accepted in storage.driver.
const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

// setupAppDatabase establishes a connection to the database and configures
// the connection pool.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required for the %s storage driver", driverPostgres)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}

// setupStorage wires the question pool and the unit of work for the
// configured driver, fronting the pool with Redis when an address is set.
func (app *application) setupStorage(ctx context.Context) error {
	switch app.config.Storage.Driver {
	case driverPostgres:
		db, err := setupAppDatabase(ctx, app.config, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.pool = postgres.NewPostgresQuestionPool(db, app.logger)
		app.uow = postgres.NewUnitOfWork(db, app.logger)

	case driverMemory:
		pool := memory.NewQuestionPool()
		if path := app.config.Storage.FixturePath; path != "" {
			loaded, err := memory.LoadFixtureFile(path)
			if err != nil {
				return err
			}
			pool = loaded
			app.logger.Info("Question fixture loaded", "path", path, "levels", pool.Levels())
		} else {
			app.logger.Warn("Memory storage started without a question fixture")
		}
		app.pool = pool
		app.uow = memory.NewStore(app.logger)

	default:
		return fmt.Errorf("unsupported storage driver: %q", app.config.Storage.Driver)
	}

	if app.config.Redis.Addr == "" {
		return nil
	}

	client, err := redis.NewClient(ctx, app.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.pool = redis.NewCachedPool(app.pool, client, app.config.Redis.PoolTTL, app.logger)
	app.logger.Info("Question pool cache enabled", "ttl", app.config.Redis.PoolTTL)

	return nil
}

// runMigrations executes a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Storage.Driver != driverPostgres {
		return fmt.Errorf("migrations require the %s storage driver, got %q", driverPostgres, cfg.Storage.Driver)
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, logger)
}

// invalidatePoolCache drops cached content of levels from redis.
func invalidatePoolCache(ctx context.Context, cfg *config.Config, levels []int, logger *slog.Logger) error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required to invalidate the question pool cache")
	}

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing redis connection", "error", err)
		}
	}()

	if err := redis.InvalidateLevels(ctx, client, levels...); err != nil {
		return err
	}

	logger.Info("Question pool cache invalidated", "levels", levels)
	return nil
}

// parseLevels parses a comma-separated list of positive level numbers.
func parseLevels(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	levels := make([]int, 0, len(parts))
	for _, part := range parts {
		level, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || level <= 0 {
			return nil, fmt.Errorf("invalid level %q", part)
		}
		levels = append(levels, level)
	}
	return levels, nil
}
