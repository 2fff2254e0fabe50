package quiz

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-quiz/internal/store"
)

// Common error types for the quiz service
var (
	// ErrInvalidLearner indicates a missing learner identifier.
	ErrInvalidLearner = errors.New("invalid learner")

	// ErrInvalidLevel indicates a level number that can never exist.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrInvalidCount indicates a non-positive batch size.
	ErrInvalidCount = errors.New("count must be greater than 0")

	// ErrInvalidQuestion indicates a missing question identifier.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrUnknownLevel indicates that the question pool does not know the level.
	ErrUnknownLevel = errors.New("unknown level")

	// ErrUnknownQuestion indicates a question that is not part of the level pool.
	ErrUnknownQuestion = errors.New("question is not part of the level")

	// ErrPoolUnavailable indicates that level content could not be loaded.
	ErrPoolUnavailable = errors.New("question pool unavailable")

	// ErrStoreUnavailable indicates that the store kept failing after all retries.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ServiceError wraps errors from the quiz service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_answer", "select_questions")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

var publicErrors = []error{
	ErrInvalidLearner,
	ErrInvalidLevel,
	ErrInvalidCount,
	ErrInvalidQuestion,
	ErrUnknownLevel,
	ErrUnknownQuestion,
	ErrPoolUnavailable,
	ErrStoreUnavailable,
}

// translate maps a failure onto the service's error vocabulary. Store
// sentinels stay reachable through errors.Is on the result.
func translate(operation, message string, err error) error {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	switch {
	case store.IsTransient(err):
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, operation, err)
	case errors.Is(err, store.ErrPoolUnavailable):
		return fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
	case errors.Is(err, store.ErrUnknownLevel):
		return fmt.Errorf("%w: %w", ErrUnknownLevel, err)
	}

	return NewServiceError(operation, message, err)
}
