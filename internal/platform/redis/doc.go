// Package redis caches the read-only question pool in Redis.
//
// CachedPool wraps any store.QuestionPool with a read-through cache. Level
// content is stored as JSON under one key per level with a TTL; unknown
// levels are cached too. Cache failures are logged and the backing pool is
// used instead, so Redis is never required for correctness.
package redis
