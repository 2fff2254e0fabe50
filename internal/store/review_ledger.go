package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// ReviewLedgerStore defines the interface for review ledger persistence.
// Entries are never deleted.
type ReviewLedgerStore interface {
	// Get retrieves the entry for a learner and question.
	// Returns ErrReviewEntryNotFound if the question was never missed.
	Get(ctx context.Context, learnerID uuid.UUID, questionID string) (*domain.ReviewEntry, error)

	// GetForUpdate is Get with a row-level lock held until the unit of work ends.
	GetForUpdate(ctx context.Context, learnerID uuid.UUID, questionID string) (*domain.ReviewEntry, error)

	// Upsert creates or replaces an entry.
	Upsert(ctx context.Context, entry *domain.ReviewEntry) error

	// ListByLevel returns every entry of the learner for a level.
	// A level of 0 returns entries for all levels.
	ListByLevel(ctx context.Context, learnerID uuid.UUID, level int) ([]*domain.ReviewEntry, error)

	// ListDue returns entries with NextReviewAt at or before now, most overdue
	// first. A level of 0 returns entries for all levels.
	ListDue(ctx context.Context, learnerID uuid.UUID, level int, now time.Time) ([]*domain.ReviewEntry, error)
}
