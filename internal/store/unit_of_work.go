package store

import "context"

// Repositories groups the stores a unit of work operates on. Inside
// UnitOfWork.Run they are bound to the same transaction.
type Repositories struct {
	Progress   ProgressStore
	Ledger     ReviewLedgerStore
	Statistics StatisticsStore
	Answers    AnswerEventStore
}

// WorkFn is executed by UnitOfWork.Run.
type WorkFn func(ctx context.Context, repos Repositories) error

// UnitOfWork applies a group of store operations atomically.
type UnitOfWork interface {
	// Run executes fn. Every write made through repos is committed when fn
	// returns nil and discarded otherwise. Concurrent units of work touching
	// the same rows are serialized.
	// Transient failures are reported as ErrStoreUnavailable; Run does not retry.
	Run(ctx context.Context, fn WorkFn) error

	// Repositories returns stores for reads outside a unit of work.
	Repositories() Repositories
}
