package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/config"
	"github.com/phrazzld/scry-quiz/internal/domain/srs"
	"github.com/phrazzld/scry-quiz/internal/events"
	"github.com/phrazzld/scry-quiz/internal/service/auth"
	"github.com/phrazzld/scry-quiz/internal/service/quiz"
	"github.com/phrazzld/scry-quiz/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections, nil when the configured storage does not use them.
	db    *sql.DB
	redis *goredis.Client

	pool store.QuestionPool
	uow  store.UnitOfWork

	tokens       auth.TokenService
	scheduler    srs.Service
	quizService  quiz.Service
	eventEmitter *events.InMemoryEventEmitter
}

// newApplication creates a new application instance with all dependencies
// initialized. Connections opened before a failure are closed.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	if err := app.setupStorage(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to set up storage: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLogHandler(logger))

	app.scheduler = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		IntervalDays: cfg.Quiz.ReviewIntervals,
	}))

	app.quizService = quiz.NewService(
		app.pool,
		app.uow,
		app.scheduler,
		app.eventEmitter,
		quizConfig(cfg.Quiz),
		logger,
	)

	logger.Info("Application initialized successfully",
		"storage_driver", cfg.Storage.Driver,
		"first_level", cfg.Quiz.FirstLevel,
		"unlock_threshold", cfg.Quiz.UnlockThreshold)
	return app, nil
}

func quizConfig(cfg config.QuizConfig) quiz.Config {
	return quiz.Config{
		FirstLevel:      cfg.FirstLevel,
		UnlockThreshold: cfg.UnlockThreshold,
		MaxBatchSize:    cfg.MaxBatchSize,
		MaxRetries:      cfg.MaxRetries,
		RetryBaseDelay:  cfg.RetryBaseDelay,
	}
}

// Run starts the HTTP server and blocks until it shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases connections held by the application.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
