package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewColumnNames = []string{
	"learner_id", "question_id", "level", "total_wrong_count", "recent_wrong_count", "resolved_count",
	"review_interval_index", "difficulty_score", "last_wrong_at", "last_event_at", "next_review_at",
	"created_at", "updated_at",
}

func reviewRow(rows *sqlmock.Rows, learnerID uuid.UUID, questionID string, difficulty int, next time.Time) *sqlmock.Rows {
	at := next.Add(-24 * time.Hour)
	return rows.AddRow(learnerID.String(), questionID, 1, 2, 1, 1, 0, difficulty, at, at, next, at, at)
}

func TestPostgresReviewLedgerStore_Get(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresReviewLedgerStore(db, nil)

	learnerID := uuid.New()
	next := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM review_ledger").
		WithArgs(learnerID, "q1").
		WillReturnRows(reviewRow(sqlmock.NewRows(reviewColumnNames), learnerID, "q1", 82, next))

	entry, err := s.Get(context.Background(), learnerID, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", entry.QuestionID)
	assert.Equal(t, 82, entry.DifficultyScore)
	assert.Equal(t, 2, entry.TotalWrongCount)
	assert.Equal(t, next, entry.NextReviewAt)

	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	_, err = s.GetForUpdate(context.Background(), learnerID, "q9")
	assert.ErrorIs(t, err, store.ErrReviewEntryNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReviewLedgerStore_Upsert(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	entry := &domain.ReviewEntry{
		LearnerID:       uuid.New(),
		QuestionID:      "q1",
		Level:           1,
		TotalWrongCount: 1,
		DifficultyScore: 50,
		LastWrongAt:     now,
		LastEventAt:     now,
		NextReviewAt:    now.Add(24 * time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	db, mock := newMockDB(t)
	s := NewPostgresReviewLedgerStore(db, nil)

	mock.ExpectExec("INSERT INTO review_ledger").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Upsert(context.Background(), entry))

	bad := entry.Clone()
	bad.DifficultyScore = 140
	assert.ErrorIs(t, s.Upsert(context.Background(), bad), store.ErrInvalidEntity)

	mock.ExpectExec("INSERT INTO review_ledger").WillReturnError(errors.New("disk full"))
	err := s.Upsert(context.Background(), entry)
	assert.Error(t, err)
	assert.False(t, store.IsTransient(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReviewLedgerStore_ListDue(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresReviewLedgerStore(db, nil)

	learnerID := uuid.New()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(reviewColumnNames)
	reviewRow(rows, learnerID, "q2", 40, now.Add(-72*time.Hour))
	reviewRow(rows, learnerID, "q1", 90, now.Add(-time.Hour))

	mock.ExpectQuery("next_review_at <= ").
		WithArgs(learnerID, 0, now).
		WillReturnRows(rows)

	due, err := s.ListDue(context.Background(), learnerID, 0, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "q2", due[0].QuestionID)
	assert.Equal(t, "q1", due[1].QuestionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReviewLedgerStore_ListByLevel(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresReviewLedgerStore(db, nil)

	learnerID := uuid.New()

	mock.ExpectQuery("ORDER BY difficulty_score DESC").
		WithArgs(learnerID, 3).
		WillReturnRows(sqlmock.NewRows(reviewColumnNames))

	entries, err := s.ListByLevel(context.Background(), learnerID, 3)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	mock.ExpectQuery("FROM review_ledger").WillReturnError(sql.ErrConnDone)
	_, err = s.ListByLevel(context.Background(), learnerID, 3)
	assert.True(t, store.IsTransient(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
