// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownQuestion is returned when a question identifier is not part of a level's pool.
	ErrUnknownQuestion = errors.New("question is not part of the level pool")
)
