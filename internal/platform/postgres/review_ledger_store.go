package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

const reviewColumns = `
	learner_id, question_id, level, total_wrong_count, recent_wrong_count, resolved_count,
	review_interval_index, difficulty_score, last_wrong_at, last_event_at, next_review_at,
	created_at, updated_at`

// PostgresReviewLedgerStore implements the store.ReviewLedgerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLedgerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLedgerStore creates a new PostgreSQL implementation of the ReviewLedgerStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLedgerStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLedgerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLedgerStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_ledger_store")),
	}
}

// Ensure PostgresReviewLedgerStore implements store.ReviewLedgerStore interface
var _ store.ReviewLedgerStore = (*PostgresReviewLedgerStore)(nil)

// WithTx returns a new store bound to tx.
func (s *PostgresReviewLedgerStore) WithTx(tx *sql.Tx) *PostgresReviewLedgerStore {
	return &PostgresReviewLedgerStore{db: tx, logger: s.logger}
}

// Get implements store.ReviewLedgerStore.Get
func (s *PostgresReviewLedgerStore) Get(
	ctx context.Context,
	learnerID uuid.UUID,
	questionID string,
) (*domain.ReviewEntry, error) {
	return s.get(ctx, learnerID, questionID, false)
}

// GetForUpdate implements store.ReviewLedgerStore.GetForUpdate
func (s *PostgresReviewLedgerStore) GetForUpdate(
	ctx context.Context,
	learnerID uuid.UUID,
	questionID string,
) (*domain.ReviewEntry, error) {
	return s.get(ctx, learnerID, questionID, true)
}

func (s *PostgresReviewLedgerStore) get(
	ctx context.Context,
	learnerID uuid.UUID,
	questionID string,
	forUpdate bool,
) (*domain.ReviewEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + reviewColumns + `
		FROM review_ledger
		WHERE learner_id = $1 AND question_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	entry, err := scanReviewEntry(s.db.QueryRowContext(ctx, query, learnerID, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewEntryNotFound
		}
		log.Error("failed to get review entry",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()),
			slog.String("question_id", questionID))
		return nil, store.NewStoreError("review_entry", "get", "query failed", MapError(err))
	}

	return entry, nil
}

// Upsert implements store.ReviewLedgerStore.Upsert
func (s *PostgresReviewLedgerStore) Upsert(ctx context.Context, entry *domain.ReviewEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("review entry validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("question_id", entry.QuestionID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_ledger (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (learner_id, question_id) DO UPDATE SET
			level = EXCLUDED.level,
			total_wrong_count = EXCLUDED.total_wrong_count,
			recent_wrong_count = EXCLUDED.recent_wrong_count,
			resolved_count = EXCLUDED.resolved_count,
			review_interval_index = EXCLUDED.review_interval_index,
			difficulty_score = EXCLUDED.difficulty_score,
			last_wrong_at = EXCLUDED.last_wrong_at,
			last_event_at = EXCLUDED.last_event_at,
			next_review_at = EXCLUDED.next_review_at,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		entry.LearnerID,
		entry.QuestionID,
		entry.Level,
		entry.TotalWrongCount,
		entry.RecentWrongCount,
		entry.ResolvedCount,
		entry.ReviewIntervalIndex,
		entry.DifficultyScore,
		entry.LastWrongAt.UTC(),
		entry.LastEventAt.UTC(),
		entry.NextReviewAt.UTC(),
		entry.CreatedAt.UTC(),
		entry.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to upsert review entry",
			slog.String("error", err.Error()),
			slog.String("learner_id", entry.LearnerID.String()),
			slog.String("question_id", entry.QuestionID))
		return store.NewStoreError("review_entry", "upsert", "upsert failed", MapError(err))
	}

	return nil
}

// ListByLevel implements store.ReviewLedgerStore.ListByLevel
func (s *PostgresReviewLedgerStore) ListByLevel(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) ([]*domain.ReviewEntry, error) {
	query := `SELECT` + reviewColumns + `
		FROM review_ledger
		WHERE learner_id = $1 AND ($2 = 0 OR level = $2)
		ORDER BY difficulty_score DESC, question_id ASC`

	return s.list(ctx, "list", query, learnerID, level)
}

// ListDue implements store.ReviewLedgerStore.ListDue
func (s *PostgresReviewLedgerStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
	now time.Time,
) ([]*domain.ReviewEntry, error) {
	query := `SELECT` + reviewColumns + `
		FROM review_ledger
		WHERE learner_id = $1 AND ($2 = 0 OR level = $2) AND next_review_at <= $3
		ORDER BY next_review_at ASC, question_id ASC`

	return s.list(ctx, "list_due", query, learnerID, level, now.UTC())
}

func (s *PostgresReviewLedgerStore) list(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.ReviewEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query review ledger",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, store.NewStoreError("review_entry", operation, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*domain.ReviewEntry, 0)
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			return nil, store.NewStoreError("review_entry", operation, "scan failed", MapError(err))
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_entry", operation, "row iteration failed", MapError(err))
	}

	return entries, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewEntry(row rowScanner) (*domain.ReviewEntry, error) {
	var e domain.ReviewEntry
	if err := row.Scan(
		&e.LearnerID,
		&e.QuestionID,
		&e.Level,
		&e.TotalWrongCount,
		&e.RecentWrongCount,
		&e.ResolvedCount,
		&e.ReviewIntervalIndex,
		&e.DifficultyScore,
		&e.LastWrongAt,
		&e.LastEventAt,
		&e.NextReviewAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.LastWrongAt = e.LastWrongAt.UTC()
	e.LastEventAt = e.LastEventAt.UTC()
	e.NextReviewAt = e.NextReviewAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	return &e, nil
}
