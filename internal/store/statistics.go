package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// StatisticsStore defines the interface for level statistics persistence.
type StatisticsStore interface {
	// Get retrieves statistics for a learner and level.
	// Returns ErrStatisticsNotFound if the learner never answered on the level.
	Get(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error)

	// GetForUpdate is Get with a row-level lock held until the unit of work ends.
	GetForUpdate(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error)

	// Upsert creates or replaces the statistics.
	Upsert(ctx context.Context, stats *domain.LevelStatistics) error
}
