//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/postgres"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/phrazzld/scry-quiz/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLevel is far above any real content so rolled-back fixtures never
// collide with seeded data.
const testLevel = 9001

func TestQuestionPool_Integration(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		testdb.InsertLevel(t, tx, testLevel, "it-q2", "it-q1")
		pool := postgres.NewPostgresQuestionPool(tx, nil)

		questions, err := pool.LoadQuestionsByLevel(context.Background(), testLevel)
		require.NoError(t, err)
		assert.Equal(t, []string{"it-q2", "it-q1"}, domain.QuestionIDs(questions), "ordered by position")
		assert.Equal(t, []string{"yes", "no"}, questions[0].Choices)

		_, err = pool.LoadQuestionsByLevel(context.Background(), testLevel+1)
		assert.ErrorIs(t, err, store.ErrUnknownLevel)
	})
}

func TestStores_Integration(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		learner := uuid.New()
		progressStore := postgres.NewPostgresProgressStore(tx, nil)
		ledgerStore := postgres.NewPostgresReviewLedgerStore(tx, nil)
		statsStore := postgres.NewPostgresStatisticsStore(tx, nil)
		answers := postgres.NewPostgresAnswerEventStore(tx, nil)

		progress, err := domain.NewLevelProgress(learner, testLevel, []string{"a", "b"}, true, now)
		require.NoError(t, err)
		require.NoError(t, progressStore.Create(ctx, progress))

		progress.Statuses["a"] = domain.StatusWrong
		progress.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, progressStore.Update(ctx, progress))

		got, err := progressStore.GetForUpdate(ctx, learner, testLevel)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got.Wrong())

		entry := &domain.ReviewEntry{
			LearnerID:       learner,
			QuestionID:      "a",
			Level:           testLevel,
			TotalWrongCount: 1,
			DifficultyScore: 50,
			LastWrongAt:     now,
			LastEventAt:     now,
			NextReviewAt:    now.Add(24 * time.Hour),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		require.NoError(t, ledgerStore.Upsert(ctx, entry))

		due, err := ledgerStore.ListDue(ctx, learner, testLevel, now.Add(48*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "a", due[0].QuestionID)

		notYet, err := ledgerStore.ListDue(ctx, learner, 0, now)
		require.NoError(t, err)
		assert.Empty(t, notYet)

		stats := domain.NewLevelStatistics(learner, testLevel)
		stats.TotalAnswered = 1
		stats.PlayCounts["a"] = 1
		require.NoError(t, statsStore.Upsert(ctx, stats))

		gotStats, err := statsStore.Get(ctx, learner, testLevel)
		require.NoError(t, err)
		assert.Equal(t, 1, gotStats.PlayCounts["a"])

		eventID := uuid.New()
		require.NoError(t, answers.Create(ctx, &domain.AnswerEvent{
			ID: eventID, LearnerID: learner, Level: testLevel, QuestionID: "a", RecordedAt: now,
		}))
		exists, err := answers.Exists(ctx, eventID)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestUnitOfWork_Integration_RollsBackOnError(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	uow := postgres.NewUnitOfWork(db, nil)
	learner := uuid.New()

	err := uow.Run(ctx, func(ctx context.Context, repos store.Repositories) error {
		stats := domain.NewLevelStatistics(learner, testLevel)
		if err := repos.Statistics.Upsert(ctx, stats); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.EqualError(t, err, "abort")

	_, err = uow.Repositories().Statistics.Get(ctx, learner, testLevel)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
