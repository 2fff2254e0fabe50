// Package domain contains the core entities of the quiz progression engine:
// per-level learner progress, the review ledger, level statistics and the
// read-only question pool items. Pure algorithms that operate on these
// entities live in the subpackages progression, selection, srs and performance.
package domain
