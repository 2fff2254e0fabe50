package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/domain/progression"
	"github.com/phrazzld/scry-quiz/internal/domain/srs"
	"github.com/phrazzld/scry-quiz/internal/events"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// AnswerSubmission is one reported answer.
type AnswerSubmission struct {
	LearnerID  uuid.UUID
	Level      int
	QuestionID string
	Correct    bool

	// EventID is the idempotency key of the submission. A zero value is
	// replaced by a fresh identifier, which makes the submission non-repeatable.
	EventID uuid.UUID
}

// Service provides the quiz engine operations for one learner at a time.
type Service interface {
	// SelectQuestions returns up to count questions of the level, drawn
	// according to the learner's current mode. It never changes mastery state,
	// but may persist first-access initialization or a consistency repair.
	// An unavailable pool yields an empty batch.
	SelectQuestions(ctx context.Context, learnerID uuid.UUID, level, count int) ([]domain.Question, error)

	// RecordAnswer applies an answer atomically to the level progress, the
	// review ledger and the level statistics, and returns the updated progress.
	// Submitting the same EventID again returns the current progress unchanged.
	RecordAnswer(ctx context.Context, answer AnswerSubmission) (*domain.LevelProgress, error)

	// GetLevelProgress returns the learner's progress on a level, initializing
	// or repairing it when needed.
	GetLevelProgress(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error)

	// GetLevelStatistics returns the learner's running statistics for a level.
	GetLevelStatistics(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error)

	// GetDueReviews returns ledger entries due now, most overdue first.
	// A level of 0 covers every level.
	GetDueReviews(ctx context.Context, learnerID uuid.UUID, level int) ([]*domain.ReviewEntry, error)

	// UnlockLevel unlocks level when the previous level meets the completion
	// gate. It reports false, without error, when the gate is not met.
	UnlockLevel(ctx context.Context, learnerID uuid.UUID, level int) (bool, error)

	// ResetLevel reinitializes the level progress from the current pool. The
	// review ledger and statistics are preserved.
	ResetLevel(ctx context.Context, learnerID uuid.UUID, level int) error
}

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	FirstLevel      int
	UnlockThreshold int
	MaxBatchSize    int
	MaxRetries      uint64
	RetryBaseDelay  time.Duration

	// Now is the clock; it defaults to time.Now.
	Now func() time.Time

	// Rand drives question selection; it defaults to a randomly seeded PCG.
	Rand *rand.Rand
}

// Defaults used when Config fields are zero.
const (
	DefaultFirstLevel     = 1
	DefaultMaxBatchSize   = 50
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 50 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.FirstLevel <= 0 {
		c.FirstLevel = DefaultFirstLevel
	}
	if c.UnlockThreshold <= 0 {
		c.UnlockThreshold = progression.DefaultUnlockThreshold
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)

type service struct {
	pool      store.QuestionPool
	uow       store.UnitOfWork
	scheduler srs.Service
	emitter   events.EventEmitter
	cfg       Config
	logger    *slog.Logger

	// rngMu guards cfg.Rand, which is not safe for concurrent use.
	rngMu sync.Mutex
}

// NewService creates a quiz Service. A nil emitter disables domain events.
func NewService(
	pool store.QuestionPool,
	uow store.UnitOfWork,
	scheduler srs.Service,
	emitter events.EventEmitter,
	cfg Config,
	logger *slog.Logger,
) Service {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if uow == nil {
		panic("uow cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		pool:      pool,
		uow:       uow,
		scheduler: scheduler,
		emitter:   emitter,
		cfg:       cfg.withDefaults(),
		logger:    logger.With(slog.String("component", "quiz_service")),
	}
}

func (s *service) now() time.Time {
	return s.cfg.Now().UTC()
}

func validateLearnerLevel(learnerID uuid.UUID, level int) error {
	if learnerID == uuid.Nil {
		return ErrInvalidLearner
	}
	if level <= 0 {
		return ErrInvalidLevel
	}
	return nil
}
