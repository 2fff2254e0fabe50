package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newProgress(t *testing.T, learnerID uuid.UUID, level int, ids ...string) *domain.LevelProgress {
	t.Helper()

	p, err := domain.NewLevelProgress(learnerID, level, ids, true, testNow)
	require.NoError(t, err)
	return p
}

func TestStore_ProgressLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	repos := s.Repositories()
	learnerID := uuid.New()

	_, err := repos.Progress.Get(ctx, learnerID, 1)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)

	p := newProgress(t, learnerID, 1, "a", "b")
	require.NoError(t, repos.Progress.Create(ctx, p))
	assert.ErrorIs(t, repos.Progress.Create(ctx, p), store.ErrProgressExists)

	got, err := repos.Progress.Get(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	// Returned records are copies.
	got.Statuses["a"] = domain.StatusCleared
	again, err := repos.Progress.Get(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnsolved, again.Statuses["a"])

	require.NoError(t, repos.Progress.Update(ctx, got))
	again, err = repos.Progress.Get(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCleared, again.Statuses["a"])

	missing := newProgress(t, learnerID, 2, "x")
	assert.ErrorIs(t, repos.Progress.Update(ctx, missing), store.ErrProgressNotFound)

	bad := p.Clone()
	bad.Mode = "expert"
	assert.ErrorIs(t, repos.Progress.Update(ctx, bad), store.ErrInvalidEntity)
}

func TestStore_RunCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	learnerID := uuid.New()

	err := s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		if err := repos.Progress.Create(ctx, newProgress(t, learnerID, 1, "a")); err != nil {
			return err
		}
		// Staged writes are visible inside the unit of work.
		_, err := repos.Progress.GetForUpdate(ctx, learnerID, 1)
		return err
	})
	require.NoError(t, err)

	_, err = s.Repositories().Progress.Get(ctx, learnerID, 1)
	assert.NoError(t, err)
	assert.Zero(t, s.locks.size())
}

func TestStore_RunDiscardsOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	learnerID := uuid.New()
	boom := errors.New("boom")

	err := s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		require.NoError(t, repos.Progress.Create(ctx, newProgress(t, learnerID, 1, "a")))
		require.NoError(t, repos.Statistics.Upsert(ctx, domain.NewLevelStatistics(learnerID, 1)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Repositories().Progress.Get(ctx, learnerID, 1)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
	_, err = s.Repositories().Statistics.Get(ctx, learnerID, 1)
	assert.ErrorIs(t, err, store.ErrStatisticsNotFound)
	assert.Zero(t, s.locks.size())
}

func TestStore_RunDiscardsOnPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	learnerID := uuid.New()

	assert.Panics(t, func() {
		_ = s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
			_ = repos.Progress.Create(ctx, newProgress(t, learnerID, 1, "a"))
			panic("boom")
		})
	})

	_, err := s.Repositories().Progress.Get(ctx, learnerID, 1)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
	assert.Zero(t, s.locks.size())
}

func TestStore_RunRejectsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStore(nil).Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_GetForUpdateSerializesSameKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	learnerID := uuid.New()
	require.NoError(t, s.Repositories().Statistics.Upsert(ctx, domain.NewLevelStatistics(learnerID, 1)))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
				stats, err := repos.Statistics.GetForUpdate(ctx, learnerID, 1)
				if err != nil {
					return err
				}
				stats.TotalAnswered++
				return repos.Statistics.Upsert(ctx, stats)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats, err := s.Repositories().Statistics.Get(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Equal(t, workers, stats.TotalAnswered)
	assert.Zero(t, s.locks.size())
}

func TestStore_Ledger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	repos := s.Repositories()
	learnerID := uuid.New()
	other := uuid.New()

	entry := func(learner uuid.UUID, id string, level, difficulty int, next time.Time) *domain.ReviewEntry {
		return &domain.ReviewEntry{
			LearnerID:       learner,
			QuestionID:      id,
			Level:           level,
			TotalWrongCount: 1,
			DifficultyScore: difficulty,
			NextReviewAt:    next,
		}
	}

	require.NoError(t, repos.Ledger.Upsert(ctx, entry(learnerID, "q1", 1, 60, testNow.Add(time.Hour))))
	require.NoError(t, repos.Ledger.Upsert(ctx, entry(learnerID, "q2", 1, 90, testNow.Add(-48*time.Hour))))
	require.NoError(t, repos.Ledger.Upsert(ctx, entry(learnerID, "q3", 2, 90, testNow.Add(-time.Hour))))
	require.NoError(t, repos.Ledger.Upsert(ctx, entry(learnerID, "q4", 1, 90, testNow)))
	require.NoError(t, repos.Ledger.Upsert(ctx, entry(other, "q1", 1, 99, testNow.Add(-time.Hour))))

	byLevel, err := repos.Ledger.ListByLevel(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "q4", "q1"}, reviewIDs(byLevel))

	due, err := repos.Ledger.ListDue(ctx, learnerID, 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "q3", "q4"}, reviewIDs(due))

	due, err = repos.Ledger.ListDue(ctx, learnerID, 2, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"q3"}, reviewIDs(due))

	_, err = repos.Ledger.Get(ctx, learnerID, "missing")
	assert.ErrorIs(t, err, store.ErrReviewEntryNotFound)

	bad := entry(learnerID, "", 1, 50, testNow)
	assert.ErrorIs(t, repos.Ledger.Upsert(ctx, bad), store.ErrInvalidEntity)
}

func TestStore_LedgerListSeesStagedEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	learnerID := uuid.New()

	err := s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		require.NoError(t, repos.Ledger.Upsert(ctx, &domain.ReviewEntry{
			LearnerID: learnerID, QuestionID: "q1", Level: 1, DifficultyScore: 50, NextReviewAt: testNow,
		}))
		entries, err := repos.Ledger.ListByLevel(ctx, learnerID, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		return errors.New("abort")
	})
	require.Error(t, err)

	entries, err := s.Repositories().Ledger.ListByLevel(ctx, learnerID, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_AnswerEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)

	event := &domain.AnswerEvent{ID: uuid.New(), LearnerID: uuid.New(), Level: 1, QuestionID: "q1", RecordedAt: testNow}

	err := s.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		exists, err := repos.Answers.Exists(ctx, event.ID)
		require.NoError(t, err)
		assert.False(t, exists)
		return repos.Answers.Create(ctx, event)
	})
	require.NoError(t, err)

	exists, err := s.Repositories().Answers.Exists(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, s.Repositories().Answers.Create(ctx, event), store.ErrAnswerEventExists)
	assert.ErrorIs(t, s.Repositories().Answers.Create(ctx, &domain.AnswerEvent{}), store.ErrInvalidEntity)
}

func reviewIDs(entries []*domain.ReviewEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.QuestionID
	}
	return ids
}
