package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var progressColumnNames = []string{
	"learner_id", "level", "mode", "rounds", "total_questions", "statuses", "completion_rate",
	"is_unlocked", "perfect_clear_count", "last_perfect_clear_at", "last_played_at",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNewPostgresProgressStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresProgressStore(nil, slog.Default()) })

	db, _ := newMockDB(t)
	s := NewPostgresProgressStore(db, nil)
	assert.NotNil(t, s.logger)
	assert.Equal(t, db, s.db)
}

func TestPostgresProgressStore_Get(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresProgressStore(db, nil)

	learnerID := uuid.New()
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	played := created.Add(time.Hour)

	mock.ExpectQuery("FROM level_progress").
		WithArgs(learnerID, 2).
		WillReturnRows(sqlmock.NewRows(progressColumnNames).AddRow(
			learnerID.String(), 2, "review", 1, 3,
			[]byte(`{"q1":"cleared","q2":"wrong","q3":"cleared"}`),
			67, true, 0, nil, played, created, played,
		))

	p, err := s.Get(context.Background(), learnerID, 2)
	require.NoError(t, err)

	assert.Equal(t, learnerID, p.LearnerID)
	assert.Equal(t, domain.ModeReview, p.Mode)
	assert.Equal(t, []string{"q1", "q3"}, p.Cleared())
	assert.Equal(t, []string{"q2"}, p.Wrong())
	assert.Equal(t, 67, p.CompletionRate)
	assert.True(t, p.LastPerfectClearAt.IsZero())
	assert.Equal(t, played, p.LastPlayedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressStore_GetNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresProgressStore(db, nil)

	mock.ExpectQuery("FROM level_progress").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestPostgresProgressStore_GetForUpdateLocksRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresProgressStore(db, nil)

	mock.ExpectQuery("FOR UPDATE").WillReturnError(&pgconn.PgError{Code: lockNotAvailableCode})

	_, err := s.GetForUpdate(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.True(t, store.IsTransient(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressStore_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	progress, err := domain.NewLevelProgress(uuid.New(), 1, []string{"a", "b"}, true, now)
	require.NoError(t, err)

	t.Run("inserted", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		mock.ExpectExec("INSERT INTO level_progress").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.Create(context.Background(), progress))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict_reports_exists", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		mock.ExpectExec("ON CONFLICT").WillReturnResult(sqlmock.NewResult(0, 0))
		err := s.Create(context.Background(), progress)
		assert.ErrorIs(t, err, store.ErrProgressExists)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("invalid_entity_skips_database", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		bad := progress.Clone()
		bad.Mode = "expert"
		err := s.Create(context.Background(), bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidMode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresProgressStore_Update(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	progress, err := domain.NewLevelProgress(uuid.New(), 1, []string{"a"}, true, now)
	require.NoError(t, err)

	t.Run("updated", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		mock.ExpectExec("UPDATE level_progress").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.Update(context.Background(), progress))
	})

	t.Run("missing_row", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		mock.ExpectExec("UPDATE level_progress").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, s.Update(context.Background(), progress), store.ErrProgressNotFound)
	})

	t.Run("serialization_failure_is_transient", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresProgressStore(db, nil)

		mock.ExpectExec("UPDATE level_progress").WillReturnError(&pgconn.PgError{Code: serializationFailureCode})
		err := s.Update(context.Background(), progress)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "level_progress", storeErr.Entity)
		assert.Equal(t, "update", storeErr.Operation)
		assert.True(t, store.IsTransient(err))
	})
}
