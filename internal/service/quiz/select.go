package quiz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/domain/selection"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// SelectQuestions implements Service.SelectQuestions
func (s *service) SelectQuestions(
	ctx context.Context,
	learnerID uuid.UUID,
	level, count int,
) ([]domain.Question, error) {
	const op = "select_questions"
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateLearnerLevel(learnerID, level); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if count > s.cfg.MaxBatchSize {
		count = s.cfg.MaxBatchSize
	}

	questions, poolIDs, err := s.loadPool(ctx, level)
	if err != nil {
		if errors.Is(err, store.ErrPoolUnavailable) {
			log.Warn("question pool unavailable, returning empty batch",
				slog.String("error", err.Error()),
				slog.Int("level", level))
			return []domain.Question{}, nil
		}
		return nil, translate(op, "failed to load level content", err)
	}
	if len(questions) == 0 {
		return []domain.Question{}, nil
	}

	progress, err := s.ensureProgress(ctx, op, learnerID, level, poolIDs)
	if err != nil {
		return nil, translate(op, "failed to load level progress", err)
	}

	var ledger []*domain.ReviewEntry
	if progress.Mode == domain.ModeMaster && progress.Count(domain.StatusWrong) == 0 {
		repos := s.uow.Repositories()
		err = s.withRetry(ctx, op, func(ctx context.Context) error {
			entries, err := repos.Ledger.ListByLevel(ctx, learnerID, level)
			ledger = entries
			return err
		})
		if err != nil {
			return nil, translate(op, "failed to load review ledger", err)
		}
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	inPool := func(id string) bool {
		_, ok := byID[id]
		return ok
	}
	sets, weights := selection.Plan(progress, ledger, inPool, s.now())

	s.rngMu.Lock()
	ids := selection.Select(sets, weights, count, s.cfg.Rand)
	s.rngMu.Unlock()

	batch := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, byID[id])
	}

	log.Debug("selected questions",
		slog.String("learner_id", learnerID.String()),
		slog.Int("level", level),
		slog.String("mode", string(progress.Mode)),
		slog.Int("requested", count),
		slog.Int("selected", len(batch)))
	return batch, nil
}
