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

// PostgresStatisticsStore implements the store.StatisticsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStatisticsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatisticsStore creates a new PostgreSQL implementation of the StatisticsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStatisticsStore(db store.DBTX, logger *slog.Logger) *PostgresStatisticsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatisticsStore{
		db:     db,
		logger: logger.With(slog.String("component", "statistics_store")),
	}
}

// Ensure PostgresStatisticsStore implements store.StatisticsStore interface
var _ store.StatisticsStore = (*PostgresStatisticsStore)(nil)

// WithTx returns a new store bound to tx.
func (s *PostgresStatisticsStore) WithTx(tx *sql.Tx) *PostgresStatisticsStore {
	return &PostgresStatisticsStore{db: tx, logger: s.logger}
}

// Get implements store.StatisticsStore.Get
func (s *PostgresStatisticsStore) Get(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error) {
	return s.get(ctx, learnerID, level, false)
}

// GetForUpdate implements store.StatisticsStore.GetForUpdate
func (s *PostgresStatisticsStore) GetForUpdate(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) (*domain.LevelStatistics, error) {
	return s.get(ctx, learnerID, level, true)
}

func (s *PostgresStatisticsStore) get(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
	forUpdate bool,
) (*domain.LevelStatistics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT learner_id, level, total_answered, correct_count, current_streak, best_streak,
			play_counts, last_answered_at, updated_at
		FROM level_statistics
		WHERE learner_id = $1 AND level = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		stats          domain.LevelStatistics
		playCounts     []byte
		lastAnsweredAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, learnerID, level).Scan(
		&stats.LearnerID,
		&stats.Level,
		&stats.TotalAnswered,
		&stats.CorrectCount,
		&stats.CurrentStreak,
		&stats.BestStreak,
		&playCounts,
		&lastAnsweredAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrStatisticsNotFound
		}
		log.Error("failed to get level statistics",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()),
			slog.Int("level", level))
		return nil, store.NewStoreError("level_statistics", "get", "query failed", MapError(err))
	}

	stats.PlayCounts = make(map[string]int)
	if len(playCounts) > 0 {
		if err := json.Unmarshal(playCounts, &stats.PlayCounts); err != nil {
			return nil, fmt.Errorf("failed to decode play counts: %w", err)
		}
	}
	stats.LastAnsweredAt = timeOrZero(lastAnsweredAt)
	stats.UpdatedAt = stats.UpdatedAt.UTC()

	return &stats, nil
}

// Upsert implements store.StatisticsStore.Upsert
func (s *PostgresStatisticsStore) Upsert(ctx context.Context, stats *domain.LevelStatistics) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	playCounts, err := json.Marshal(stats.PlayCounts)
	if err != nil {
		return fmt.Errorf("failed to encode play counts: %w", err)
	}

	query := `
		INSERT INTO level_statistics (learner_id, level, total_answered, correct_count, current_streak,
			best_streak, play_counts, last_answered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (learner_id, level) DO UPDATE SET
			total_answered = EXCLUDED.total_answered,
			correct_count = EXCLUDED.correct_count,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			play_counts = EXCLUDED.play_counts,
			last_answered_at = EXCLUDED.last_answered_at,
			updated_at = EXCLUDED.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		stats.LearnerID,
		stats.Level,
		stats.TotalAnswered,
		stats.CorrectCount,
		stats.CurrentStreak,
		stats.BestStreak,
		playCounts,
		nullTime(stats.LastAnsweredAt),
		stats.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to upsert level statistics",
			slog.String("error", err.Error()),
			slog.String("learner_id", stats.LearnerID.String()),
			slog.Int("level", stats.Level))
		return store.NewStoreError("level_statistics", "upsert", "upsert failed", MapError(err))
	}

	return nil
}
