package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultTTL is used when NewCachedPool receives a non-positive TTL.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "scry:pool:level:"

// Cache is the subset of redis commands used by CachedPool.
// *goredis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// cachedLevel is the JSON value stored per level.
type cachedLevel struct {
	Exists    bool              `json:"exists"`
	Questions []domain.Question `json:"questions,omitempty"`
}

// CachedPool is a read-through cache in front of a store.QuestionPool.
type CachedPool struct {
	backing store.QuestionPool
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// Ensure CachedPool implements store.QuestionPool interface
var _ store.QuestionPool = (*CachedPool)(nil)

// NewCachedPool wraps backing with cache.
func NewCachedPool(backing store.QuestionPool, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedPool {
	if backing == nil {
		panic("backing pool cannot be nil")
	}
	if cache == nil {
		panic("cache cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CachedPool{
		backing: backing,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "question_pool_cache")),
	}
}

func levelKey(level int) string {
	return fmt.Sprintf("%s%d", keyPrefix, level)
}

// LoadQuestionsByLevel implements store.QuestionPool.LoadQuestionsByLevel
func (p *CachedPool) LoadQuestionsByLevel(ctx context.Context, level int) ([]domain.Question, error) {
	if cached, ok := p.lookup(ctx, level); ok {
		if !cached.Exists {
			return nil, store.ErrUnknownLevel
		}
		if cached.Questions == nil {
			return []domain.Question{}, nil
		}
		return cached.Questions, nil
	}

	questions, err := p.backing.LoadQuestionsByLevel(ctx, level)
	switch {
	case errors.Is(err, store.ErrUnknownLevel):
		p.save(ctx, level, cachedLevel{Exists: false})
		return nil, err
	case err != nil:
		return nil, err
	}

	p.save(ctx, level, cachedLevel{Exists: true, Questions: questions})
	return questions, nil
}

// LevelExists implements store.QuestionPool.LevelExists
func (p *CachedPool) LevelExists(ctx context.Context, level int) (bool, error) {
	if cached, ok := p.lookup(ctx, level); ok {
		return cached.Exists, nil
	}
	return p.backing.LevelExists(ctx, level)
}

// InvalidateLevels drops the cached content of levels from cache so the next
// read goes to the backing pool. Operators run it after the content system
// revises a level.
func InvalidateLevels(ctx context.Context, cache Cache, levels ...int) error {
	if len(levels) == 0 {
		return nil
	}

	keys := make([]string, len(levels))
	for i, level := range levels {
		keys[i] = levelKey(level)
	}
	if err := cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate levels %v: %w", levels, err)
	}
	return nil
}

func (p *CachedPool) lookup(ctx context.Context, level int) (cachedLevel, bool) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	raw, err := p.cache.Get(ctx, levelKey(level)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Warn("question pool cache read failed",
				slog.String("error", err.Error()),
				slog.Int("level", level))
		}
		return cachedLevel{}, false
	}

	var cached cachedLevel
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Warn("discarding undecodable question pool cache entry",
			slog.String("error", err.Error()),
			slog.Int("level", level))
		return cachedLevel{}, false
	}
	return cached, true
}

func (p *CachedPool) save(ctx context.Context, level int, value cachedLevel) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn("failed to encode question pool cache entry", slog.String("error", err.Error()))
		return
	}

	if err := p.cache.Set(ctx, levelKey(level), raw, p.ttl).Err(); err != nil {
		log.Warn("question pool cache write failed",
			slog.String("error", err.Error()),
			slog.Int("level", level))
	}
}
