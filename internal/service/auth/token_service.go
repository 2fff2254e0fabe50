// Package auth verifies the bearer tokens that identify learners. Accounts and
// token issuance belong to an external identity service; GenerateToken exists
// for local development and tests.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService defines operations on learner bearer tokens.
type TokenService interface {
	// GenerateToken creates a signed token whose sub claim is the learner ID.
	GenerateToken(ctx context.Context, learnerID uuid.UUID) (string, error)

	// ValidateToken verifies the token signature and time claims and returns
	// its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the verified claims of a learner token.
type Claims struct {
	LearnerID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
