package quiz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// GetDueReviews implements Service.GetDueReviews
func (s *service) GetDueReviews(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) ([]*domain.ReviewEntry, error) {
	const op = "get_due_reviews"

	if learnerID == uuid.Nil {
		return nil, ErrInvalidLearner
	}
	if level < 0 {
		return nil, ErrInvalidLevel
	}

	now := s.now()
	repos := s.uow.Repositories()

	var entries []*domain.ReviewEntry
	err := s.withRetry(ctx, op, func(ctx context.Context) error {
		listed, err := repos.Ledger.ListDue(ctx, learnerID, level, now)
		entries = listed
		return err
	})
	if err != nil {
		return nil, translate(op, "failed to list due reviews", err)
	}

	due := s.scheduler.DueForReview(entries, now)

	logger.FromContextOrDefault(ctx, s.logger).Debug("listed due reviews",
		slog.String("learner_id", learnerID.String()),
		slog.Int("level", level),
		slog.Int("due", len(due)))
	return due, nil
}

// GetLevelStatistics implements Service.GetLevelStatistics
func (s *service) GetLevelStatistics(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) (*domain.LevelStatistics, error) {
	const op = "get_level_statistics"

	if err := validateLearnerLevel(learnerID, level); err != nil {
		return nil, err
	}

	exists, err := s.pool.LevelExists(ctx, level)
	if err != nil {
		return nil, translate(op, "failed to check level", err)
	}
	if !exists {
		return nil, ErrUnknownLevel
	}

	repos := s.uow.Repositories()

	var stats *domain.LevelStatistics
	err = s.withRetry(ctx, op, func(ctx context.Context) error {
		st, err := repos.Statistics.Get(ctx, learnerID, level)
		stats = st
		return err
	})
	if store.IsNotFoundError(err) {
		return domain.NewLevelStatistics(learnerID, level), nil
	}
	if err != nil {
		return nil, translate(op, "failed to load level statistics", err)
	}
	return stats, nil
}
