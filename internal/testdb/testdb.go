//go:build integration

// Package testdb provides PostgreSQL helpers for integration tests. Tests
// using it are skipped unless a database URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/scry-quiz/internal/platform/postgres"
	"github.com/phrazzld/scry-quiz/internal/redact"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted, in order, for the test database URL.
const (
	EnvTestDatabaseURL = "SCRY_TEST_DB_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

var migrateOnce sync.Once

// URL returns the configured test database URL, or "" when none is set.
func URL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Open connects to the test database and applies the migrations once per
// process. The test is skipped when no URL is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := URL()
	if dbURL == "" {
		t.Skipf("integration database not configured: set %s", EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open %s", redact.String(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database %s is not reachable", redact.String(dbURL))

	var migrateErr error
	migrateOnce.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		migrateErr = postgres.Migrate(context.Background(), db, "up", quiet)
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, isolating
// the test's writes.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// InsertLevel stores a level and its questions inside tx.
func InsertLevel(t *testing.T, tx *sql.Tx, level int, questionIDs ...string) {
	t.Helper()

	ctx := context.Background()
	_, err := tx.ExecContext(ctx, `INSERT INTO levels (level) VALUES ($1) ON CONFLICT (level) DO NOTHING`, level)
	require.NoError(t, err)

	for i, id := range questionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO questions (id, level, position, content, choices, correct_answer_index)
			VALUES ($1, $2, $3, $4, '["yes","no"]'::jsonb, 0)`,
			id, level, i, "Question "+id)
		require.NoError(t, err)
	}
}
