package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

const progressColumns = `
	learner_id, level, mode, rounds, total_questions, statuses, completion_rate,
	is_unlocked, perfect_clear_count, last_perfect_clear_at, last_played_at,
	created_at, updated_at`

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx returns a new store bound to tx.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) *PostgresProgressStore {
	return &PostgresProgressStore{db: tx, logger: s.logger}
}

// Get implements store.ProgressStore.Get
func (s *PostgresProgressStore) Get(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error) {
	return s.get(ctx, learnerID, level, false)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate
// It must be called inside a transaction for the lock to have any effect.
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) (*domain.LevelProgress, error) {
	return s.get(ctx, learnerID, level, true)
}

func (s *PostgresProgressStore) get(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
	forUpdate bool,
) (*domain.LevelProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + progressColumns + `
		FROM level_progress
		WHERE learner_id = $1 AND level = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, learnerID, level))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("level progress not found",
				slog.String("learner_id", learnerID.String()),
				slog.Int("level", level))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get level progress",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()),
			slog.Int("level", level),
			slog.Bool("for_update", forUpdate))
		return nil, store.NewStoreError("level_progress", "get", "query failed", MapError(err))
	}

	return progress, nil
}

// Create implements store.ProgressStore.Create
// A concurrent insert of the same learner and level is not an error for the
// database; it is reported as store.ErrProgressExists.
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.LevelProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("level progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("learner_id", progress.LearnerID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	statuses, err := json.Marshal(progress.Statuses)
	if err != nil {
		return fmt.Errorf("failed to encode statuses: %w", err)
	}

	query := `
		INSERT INTO level_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (learner_id, level) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query,
		progress.LearnerID,
		progress.Level,
		string(progress.Mode),
		progress.Rounds,
		progress.TotalQuestions,
		statuses,
		progress.CompletionRate,
		progress.IsUnlocked,
		progress.PerfectClearCount,
		nullTime(progress.LastPerfectClearAt),
		nullTime(progress.LastPlayedAt),
		progress.CreatedAt.UTC(),
		progress.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create level progress",
			slog.String("error", err.Error()),
			slog.String("learner_id", progress.LearnerID.String()),
			slog.Int("level", progress.Level))
		return store.NewStoreError("level_progress", "create", "insert failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrProgressExists); err != nil {
		return err
	}

	log.Debug("level progress created",
		slog.String("learner_id", progress.LearnerID.String()),
		slog.Int("level", progress.Level),
		slog.Int("total_questions", progress.TotalQuestions))
	return nil
}

// Update implements store.ProgressStore.Update
func (s *PostgresProgressStore) Update(ctx context.Context, progress *domain.LevelProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("level progress validation failed during update",
			slog.String("error", err.Error()),
			slog.String("learner_id", progress.LearnerID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	statuses, err := json.Marshal(progress.Statuses)
	if err != nil {
		return fmt.Errorf("failed to encode statuses: %w", err)
	}

	query := `
		UPDATE level_progress
		SET mode = $3, rounds = $4, total_questions = $5, statuses = $6, completion_rate = $7,
			is_unlocked = $8, perfect_clear_count = $9, last_perfect_clear_at = $10,
			last_played_at = $11, updated_at = $12
		WHERE learner_id = $1 AND level = $2`

	result, err := s.db.ExecContext(ctx, query,
		progress.LearnerID,
		progress.Level,
		string(progress.Mode),
		progress.Rounds,
		progress.TotalQuestions,
		statuses,
		progress.CompletionRate,
		progress.IsUnlocked,
		progress.PerfectClearCount,
		nullTime(progress.LastPerfectClearAt),
		nullTime(progress.LastPlayedAt),
		progress.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to update level progress",
			slog.String("error", err.Error()),
			slog.String("learner_id", progress.LearnerID.String()),
			slog.Int("level", progress.Level))
		return store.NewStoreError("level_progress", "update", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

func scanProgress(row rowScanner) (*domain.LevelProgress, error) {
	var (
		p             domain.LevelProgress
		mode          string
		statuses      []byte
		lastPerfectAt sql.NullTime
		lastPlayedAt  sql.NullTime
	)

	if err := row.Scan(
		&p.LearnerID,
		&p.Level,
		&mode,
		&p.Rounds,
		&p.TotalQuestions,
		&statuses,
		&p.CompletionRate,
		&p.IsUnlocked,
		&p.PerfectClearCount,
		&lastPerfectAt,
		&lastPlayedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Mode = domain.Mode(mode)
	p.Statuses = make(map[string]domain.QuestionStatus)
	if len(statuses) > 0 {
		if err := json.Unmarshal(statuses, &p.Statuses); err != nil {
			return nil, fmt.Errorf("failed to decode statuses: %w", err)
		}
	}
	p.LastPerfectClearAt = timeOrZero(lastPerfectAt)
	p.LastPlayedAt = timeOrZero(lastPlayedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}
