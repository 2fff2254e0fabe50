// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in internal/store: level progress, the review ledger,
// level statistics, applied answer events and the read-only question pool.
//
// Stores accept a store.DBTX so they can run against a *sql.DB or a *sql.Tx.
// UnitOfWork binds them to one transaction per run, and database errors are
// translated into store sentinels by MapError. Schema changes live in the
// embedded migrations directory and are applied with goose via Migrate.
package postgres
