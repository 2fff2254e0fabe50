package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the SQL stores need. Stores built on a *sql.DB
// run each statement on its own; the unit of work rebinds them to a *sql.Tx
// so row locks taken by GetForUpdate hold until commit.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
