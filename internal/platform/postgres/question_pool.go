package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// PostgresQuestionPool implements store.QuestionPool over the levels and
// questions tables, which are populated by the content system.
type PostgresQuestionPool struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionPool creates a new PostgreSQL question pool.
func NewPostgresQuestionPool(db store.DBTX, logger *slog.Logger) *PostgresQuestionPool {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionPool{
		db:     db,
		logger: logger.With(slog.String("component", "question_pool")),
	}
}

// Ensure PostgresQuestionPool implements store.QuestionPool interface
var _ store.QuestionPool = (*PostgresQuestionPool)(nil)

// LevelExists implements store.QuestionPool.LevelExists
func (p *PostgresQuestionPool) LevelExists(ctx context.Context, level int) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM levels WHERE level = $1)`, level).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, MapError(err))
	}
	return exists, nil
}

// LoadQuestionsByLevel implements store.QuestionPool.LoadQuestionsByLevel
func (p *PostgresQuestionPool) LoadQuestionsByLevel(ctx context.Context, level int) ([]domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	exists, err := p.LevelExists(ctx, level)
	if err != nil {
		log.Error("failed to check level", slog.String("error", err.Error()), slog.Int("level", level))
		return nil, err
	}
	if !exists {
		return nil, store.ErrUnknownLevel
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, level, position, content, choices, correct_answer_index, category
		FROM questions
		WHERE level = $1
		ORDER BY position ASC, id ASC`, level)
	if err != nil {
		log.Error("failed to load questions", slog.String("error", err.Error()), slog.Int("level", level))
		return nil, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, MapError(err))
	}
	defer func() { _ = rows.Close() }()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q       domain.Question
			choices []byte
		)
		if err := rows.Scan(&q.ID, &q.Level, &q.Position, &q.Content, &choices, &q.CorrectAnswerIndex, &q.Category); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, err)
		}
		if len(choices) > 0 {
			if err := json.Unmarshal(choices, &q.Choices); err != nil {
				return nil, fmt.Errorf("%w: failed to decode choices of %s: %w", store.ErrPoolUnavailable, q.ID, err)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, err)
	}

	return questions, nil
}
