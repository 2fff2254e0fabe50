package quiz_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/domain/srs"
	"github.com/phrazzld/scry-quiz/internal/events"
	"github.com/phrazzld/scry-quiz/internal/platform/memory"
	"github.com/phrazzld/scry-quiz/internal/service/quiz"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyUnitOfWork fails the first failures runs with a transient error.
type flakyUnitOfWork struct {
	*memory.Store

	mu       sync.Mutex
	failures int
	runs     int
}

func (f *flakyUnitOfWork) Run(ctx context.Context, fn store.WorkFn) error {
	f.mu.Lock()
	f.runs++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return fmt.Errorf("%w: connection reset by peer", store.ErrStoreUnavailable)
	}
	return f.Store.Run(ctx, fn)
}

func (f *flakyUnitOfWork) Runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

// recorder captures emitted domain events.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) HandleEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

type fixture struct {
	svc      quiz.Service
	pool     *memory.QuestionPool
	store    *memory.Store
	uow      store.UnitOfWork
	flaky    *flakyUnitOfWork
	clock    *fakeClock
	recorder *recorder
}

type fixtureOption func(cfg *quiz.Config, f *fixture)

func withFlakyRuns(failures int) fixtureOption {
	return func(_ *quiz.Config, f *fixture) {
		f.flaky = &flakyUnitOfWork{Store: f.store, failures: failures}
		f.uow = f.flaky
	}
}

func withSeed(seed uint64) fixtureOption {
	return func(cfg *quiz.Config, _ *fixture) { cfg.Rand = rand.New(rand.NewPCG(seed, seed)) }
}

func withMaxRetries(n uint64) fixtureOption {
	return func(cfg *quiz.Config, _ *fixture) { cfg.MaxRetries = n }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		pool:     memory.NewQuestionPool(),
		store:    memory.NewStore(logger),
		clock:    &fakeClock{now: testStart},
		recorder: &recorder{},
	}
	f.uow = f.store

	cfg := quiz.Config{
		FirstLevel:     1,
		RetryBaseDelay: time.Millisecond,
		Now:            f.clock.Now,
		Rand:           rand.New(rand.NewPCG(1, 2)),
	}
	for _, opt := range opts {
		opt(&cfg, f)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(f.recorder)

	f.svc = quiz.NewService(f.pool, f.uow, srs.NewDefaultService(), emitter, cfg, logger)
	return f
}

func (f *fixture) setLevel(t *testing.T, level int, ids ...string) {
	t.Helper()
	questions := make([]domain.Question, len(ids))
	for i, id := range ids {
		questions[i] = domain.Question{
			ID:       id,
			Position: i,
			Content:  "question " + id,
			Choices:  []string{"yes", "no"},
		}
	}
	require.NoError(t, f.pool.SetLevel(level, questions))
}

func (f *fixture) answer(t *testing.T, learnerID uuid.UUID, level int, questionID string, correct bool) *domain.LevelProgress {
	t.Helper()
	progress, err := f.svc.RecordAnswer(context.Background(), quiz.AnswerSubmission{
		LearnerID:  learnerID,
		Level:      level,
		QuestionID: questionID,
		Correct:    correct,
		EventID:    uuid.New(),
	})
	require.NoError(t, err)
	return progress
}

func questionIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, i+1)
	}
	return ids
}
