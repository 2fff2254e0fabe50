package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/scry-quiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questionColumnNames = []string{"id", "level", "position", "content", "choices", "correct_answer_index", "category"}

func TestPostgresQuestionPool_LoadQuestionsByLevel(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	pool := NewPostgresQuestionPool(db, nil)

	mock.ExpectQuery("FROM levels").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM questions").WithArgs(1).
		WillReturnRows(sqlmock.NewRows(questionColumnNames).
			AddRow("l1-q1", 1, 0, "2 + 2?", []byte(`["3","4"]`), 1, "math").
			AddRow("l1-q2", 1, 1, "Capital of France?", []byte(`["Paris","Rome"]`), 0, "geo"))

	questions, err := pool.LoadQuestionsByLevel(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "l1-q1", questions[0].ID)
	assert.Equal(t, []string{"3", "4"}, questions[0].Choices)
	assert.Equal(t, "geo", questions[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQuestionPool_UnknownLevel(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	pool := NewPostgresQuestionPool(db, nil)

	mock.ExpectQuery("FROM levels").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := pool.LoadQuestionsByLevel(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrUnknownLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQuestionPool_Unavailable(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	pool := NewPostgresQuestionPool(db, nil)

	mock.ExpectQuery("FROM levels").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM questions").WillReturnError(errors.New("relation does not exist"))

	_, err := pool.LoadQuestionsByLevel(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrPoolUnavailable)

	mock.ExpectQuery("FROM levels").WillReturnError(errors.New("connection reset"))
	_, err = pool.LevelExists(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrPoolUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
