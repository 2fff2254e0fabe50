// Package quiz implements the client-facing operations of the adaptive quiz
// engine: question selection, answer recording, level progress, due reviews,
// unlocking and resetting levels.
//
// The service orchestrates the pure domain packages (progression, selection,
// srs and performance) around a store.UnitOfWork. Every answer is applied in
// one unit of work that updates the level progress, the review ledger and the
// level statistics together and records the answer event ID, so a retried
// submission is applied only once. Transient store failures are retried with
// bounded exponential backoff before ErrStoreUnavailable is returned.
package quiz
