package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewTokenService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err, "zero lifetime")

	svc, err := NewTokenService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenServiceWithClock(testSecret, time.Hour, func() time.Time { return fixedTime })
	require.NoError(t, err)

	learnerID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), learnerID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, learnerID, claims.LearnerID)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidSubject)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenServiceWithClock(testSecret, time.Hour, func() time.Time { return issued })
	require.NoError(t, err)

	token, err := issuer.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name    string
		now     time.Time
		secret  string
		token   string
		wantErr error
	}{
		{
			name:    "expired beyond leeway",
			now:     issued.Add(2 * time.Hour),
			secret:  testSecret,
			token:   token,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			now:     issued,
			secret:  "another-secret-that-is-long-enough-for-tests",
			token:   token,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			now:     issued,
			secret:  testSecret,
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
		{
			name:   "subject is not a uuid",
			now:    issued,
			secret: testSecret,
			token: sign(jwt.RegisteredClaims{
				Subject:   "someone@example.com",
				ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
			}, jwt.SigningMethodHS256, []byte(testSecret)),
			wantErr: ErrInvalidSubject,
		},
		{
			name:   "missing expiry",
			now:    issued,
			secret: testSecret,
			token: sign(jwt.RegisteredClaims{
				Subject: uuid.NewString(),
			}, jwt.SigningMethodHS256, []byte(testSecret)),
			wantErr: ErrInvalidToken,
		},
		{
			name:   "other hmac algorithm",
			now:    issued,
			secret: testSecret,
			token: sign(jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
			}, jwt.SigningMethodHS512, []byte(testSecret)),
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := NewTokenServiceWithClock(tt.secret, time.Hour, func() time.Time { return tt.now })
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateToken_AllowsClockSkew(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenServiceWithClock(testSecret, time.Hour, func() time.Time { return issued })
	require.NoError(t, err)
	token, err := issuer.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	verifier, err := NewTokenServiceWithClock(testSecret, time.Hour, func() time.Time {
		return issued.Add(time.Hour + time.Minute)
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
}
