// Package store defines the persistence interfaces of the quiz engine.
//
// Implementations live under internal/platform: postgres for production and
// memory for tests and local runs. All multi-entity updates go through a
// UnitOfWork so an answer is either fully applied or not at all.
package store
