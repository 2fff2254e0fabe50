package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-quiz/internal/service/quiz"
)

// MapErrorToStatusCode maps service errors to HTTP status codes without
// exposing their messages.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, quiz.ErrInvalidLearner),
		errors.Is(err, quiz.ErrInvalidLevel),
		errors.Is(err, quiz.ErrInvalidCount),
		errors.Is(err, quiz.ErrInvalidQuestion):
		return http.StatusBadRequest

	case errors.Is(err, quiz.ErrUnknownLevel),
		errors.Is(err, quiz.ErrUnknownQuestion):
		return http.StatusNotFound

	case errors.Is(err, quiz.ErrStoreUnavailable),
		errors.Is(err, quiz.ErrPoolUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, quiz.ErrInvalidLearner):
		return "Invalid learner"
	case errors.Is(err, quiz.ErrInvalidLevel):
		return "Invalid level"
	case errors.Is(err, quiz.ErrInvalidCount):
		return "Count must be greater than 0"
	case errors.Is(err, quiz.ErrInvalidQuestion):
		return "Question ID is required"
	case errors.Is(err, quiz.ErrUnknownLevel):
		return "Level not found"
	case errors.Is(err, quiz.ErrUnknownQuestion):
		return "Question is not part of this level"
	case errors.Is(err, quiz.ErrStoreUnavailable),
		errors.Is(err, quiz.ErrPoolUnavailable):
		return "Service temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	first := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", first.Field(), validationTagMessage(first.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gt", "gte":
		return "too small"
	case "max", "lt", "lte":
		return "too large"
	default:
		return "validation failed"
	}
}
