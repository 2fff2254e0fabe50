package store

import (
	"context"

	"github.com/phrazzld/scry-quiz/internal/domain"
)

// QuestionPool is the read-only source of level content. The pool is owned by
// an external content system; implementations may cache it freely.
type QuestionPool interface {
	// LoadQuestionsByLevel returns the questions of a level ordered by position.
	// Returns ErrUnknownLevel if the level does not exist and
	// ErrPoolUnavailable if the content cannot be read.
	// Repeated calls within a session must return the same content.
	LoadQuestionsByLevel(ctx context.Context, level int) ([]domain.Question, error)

	// LevelExists reports whether the level is known to the pool.
	LevelExists(ctx context.Context, level int) (bool, error)
}
