package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// ProgressStore defines the interface for level progress persistence.
type ProgressStore interface {
	// Get retrieves progress for a learner and level.
	// Returns ErrProgressNotFound if none exists.
	// NOTE: Get does not lock the row; use GetForUpdate inside a unit of work
	// when the record will be modified.
	Get(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error)

	// GetForUpdate retrieves progress with a row-level lock held until the
	// surrounding unit of work ends.
	// Returns ErrProgressNotFound if none exists.
	GetForUpdate(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error)

	// Create saves a new progress record.
	// Returns ErrProgressExists if a record for the learner and level already exists,
	// leaving the stored record untouched.
	Create(ctx context.Context, progress *domain.LevelProgress) error

	// Update replaces an existing progress record.
	// Returns ErrProgressNotFound if the record does not exist.
	Update(ctx context.Context, progress *domain.LevelProgress) error
}
