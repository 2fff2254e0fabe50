package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// PostgresAnswerEventStore implements the store.AnswerEventStore interface.
type PostgresAnswerEventStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnswerEventStore creates a new PostgreSQL implementation of the AnswerEventStore interface.
func NewPostgresAnswerEventStore(db store.DBTX, logger *slog.Logger) *PostgresAnswerEventStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnswerEventStore{
		db:     db,
		logger: logger.With(slog.String("component", "answer_event_store")),
	}
}

// Ensure PostgresAnswerEventStore implements store.AnswerEventStore interface
var _ store.AnswerEventStore = (*PostgresAnswerEventStore)(nil)

// WithTx returns a new store bound to tx.
func (s *PostgresAnswerEventStore) WithTx(tx *sql.Tx) *PostgresAnswerEventStore {
	return &PostgresAnswerEventStore{db: tx, logger: s.logger}
}

// Create implements store.AnswerEventStore.Create
func (s *PostgresAnswerEventStore) Create(ctx context.Context, event *domain.AnswerEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO answer_events (id, learner_id, level, question_id, correct, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.LearnerID,
		event.Level,
		event.QuestionID,
		event.Correct,
		event.RecordedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to record answer event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return store.NewStoreError("answer_event", "create", "insert failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrAnswerEventExists)
}

// Exists implements store.AnswerEventStore.Exists
func (s *PostgresAnswerEventStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM answer_events WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, store.NewStoreError("answer_event", "exists", "query failed", MapError(err))
	}
	return exists, nil
}
