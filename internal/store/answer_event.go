package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// AnswerEventStore keeps the identifiers of applied answer events so a
// retried submission is applied only once.
type AnswerEventStore interface {
	// Create records an applied event.
	// Returns ErrAnswerEventExists if the event ID was already recorded.
	Create(ctx context.Context, event *domain.AnswerEvent) error

	// Exists reports whether the event ID was already recorded.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
