package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/store"
)

// UnitOfWork implements store.UnitOfWork with one database transaction per run.
// Row locks taken through GetForUpdate serialize concurrent runs on the same keys.
type UnitOfWork struct {
	db         *sql.DB
	progress   *PostgresProgressStore
	ledger     *PostgresReviewLedgerStore
	statistics *PostgresStatisticsStore
	answers    *PostgresAnswerEventStore
}

// NewUnitOfWork creates a unit of work over db.
func NewUnitOfWork(db *sql.DB, logger *slog.Logger) *UnitOfWork {
	if db == nil {
		panic("db cannot be nil")
	}

	return &UnitOfWork{
		db:         db,
		progress:   NewPostgresProgressStore(db, logger),
		ledger:     NewPostgresReviewLedgerStore(db, logger),
		statistics: NewPostgresStatisticsStore(db, logger),
		answers:    NewPostgresAnswerEventStore(db, logger),
	}
}

// Ensure UnitOfWork implements store.UnitOfWork interface
var _ store.UnitOfWork = (*UnitOfWork)(nil)

// Run implements store.UnitOfWork.Run
func (u *UnitOfWork) Run(ctx context.Context, fn store.WorkFn) error {
	err := store.RunInTransaction(ctx, u.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.Repositories{
			Progress:   u.progress.WithTx(tx),
			Ledger:     u.ledger.WithTx(tx),
			Statistics: u.statistics.WithTx(tx),
			Answers:    u.answers.WithTx(tx),
		})
	})
	if err != nil && !store.IsTransient(err) && IsTransientError(err) {
		return MapError(err)
	}
	return err
}

// Repositories implements store.UnitOfWork.Repositories
func (u *UnitOfWork) Repositories() store.Repositories {
	return store.Repositories{
		Progress:   u.progress,
		Ledger:     u.ledger,
		Statistics: u.statistics,
		Answers:    u.answers,
	}
}
