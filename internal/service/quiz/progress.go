package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/domain/progression"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// loadPool returns the level content and its identifiers.
func (s *service) loadPool(ctx context.Context, level int) ([]domain.Question, []string, error) {
	questions, err := s.pool.LoadQuestionsByLevel(ctx, level)
	if err != nil {
		if errors.Is(err, store.ErrUnknownLevel) {
			return nil, nil, fmt.Errorf("%w: %d", ErrUnknownLevel, level)
		}
		return nil, nil, err
	}
	return questions, domain.QuestionIDs(questions), nil
}

// ensureProgress returns the stored progress when it is usable, and otherwise
// initializes or repairs it in a unit of work.
func (s *service) ensureProgress(
	ctx context.Context,
	operation string,
	learnerID uuid.UUID,
	level int,
	poolIDs []string,
) (*domain.LevelProgress, error) {
	repos := s.uow.Repositories()

	var progress *domain.LevelProgress
	err := s.withRetry(ctx, operation, func(ctx context.Context) error {
		p, err := repos.Progress.Get(ctx, learnerID, level)
		progress = p
		return err
	})
	switch {
	case err == nil && !progression.NeedsRepair(progress, poolIDs) && !progression.Drifted(progress, poolIDs):
		return progress, nil
	case err != nil && !store.IsNotFoundError(err):
		return nil, err
	}

	err = s.runUnit(ctx, operation, func(ctx context.Context, repos store.Repositories) error {
		p, err := s.prepareProgress(ctx, repos, learnerID, level, poolIDs, s.now())
		progress = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// prepareProgress locks the progress record, creating it from the pool when
// absent, reinitializing it when it no longer matches the pool and realigning
// it when the pool was partially revised.
func (s *service) prepareProgress(
	ctx context.Context,
	repos store.Repositories,
	learnerID uuid.UUID,
	level int,
	poolIDs []string,
	now time.Time,
) (*domain.LevelProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	progress, err := repos.Progress.GetForUpdate(ctx, learnerID, level)
	if store.IsNotFoundError(err) {
		fresh, newErr := domain.NewLevelProgress(learnerID, level, poolIDs, level == s.cfg.FirstLevel, now)
		if newErr != nil {
			return nil, newErr
		}
		err = repos.Progress.Create(ctx, fresh)
		switch {
		case err == nil:
			log.Debug("initialized level progress",
				slog.String("learner_id", learnerID.String()),
				slog.Int("level", level),
				slog.Int("total_questions", fresh.TotalQuestions))
			return fresh, nil
		case errors.Is(err, store.ErrProgressExists):
			progress, err = repos.Progress.GetForUpdate(ctx, learnerID, level)
		}
	}
	if err != nil {
		return nil, err
	}

	if progression.Drifted(progress, poolIDs) {
		realigned, err := progression.Realign(progress, poolIDs, now)
		if err != nil {
			return nil, err
		}
		if err := repos.Progress.Update(ctx, realigned); err != nil {
			return nil, err
		}

		log.Info("progress realigned with revised pool",
			slog.String("learner_id", learnerID.String()),
			slog.Int("level", level),
			slog.Int("previous_total", progress.TotalQuestions),
			slog.Int("pool_questions", realigned.TotalQuestions))
		return realigned, nil
	}

	if !progression.NeedsRepair(progress, poolIDs) {
		return progress, nil
	}

	repaired, err := progression.Reinitialize(progress, poolIDs, now)
	if err != nil {
		return nil, err
	}
	if err := repos.Progress.Update(ctx, repaired); err != nil {
		return nil, err
	}

	log.Warn("inconsistent progress repaired",
		slog.String("learner_id", learnerID.String()),
		slog.Int("level", level),
		slog.Int("stale_questions", len(progress.Statuses)),
		slog.Int("pool_questions", repaired.TotalQuestions))
	return repaired, nil
}

// GetLevelProgress implements Service.GetLevelProgress
func (s *service) GetLevelProgress(
	ctx context.Context,
	learnerID uuid.UUID,
	level int,
) (*domain.LevelProgress, error) {
	const op = "get_level_progress"

	if err := validateLearnerLevel(learnerID, level); err != nil {
		return nil, err
	}

	_, poolIDs, err := s.loadPool(ctx, level)
	if err != nil {
		return nil, translate(op, "failed to load level content", err)
	}

	progress, err := s.ensureProgress(ctx, op, learnerID, level, poolIDs)
	if err != nil {
		return nil, translate(op, "failed to load level progress", err)
	}
	return progress, nil
}

// UnlockLevel implements Service.UnlockLevel
func (s *service) UnlockLevel(ctx context.Context, learnerID uuid.UUID, level int) (bool, error) {
	const op = "unlock_level"
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateLearnerLevel(learnerID, level); err != nil {
		return false, err
	}

	_, poolIDs, err := s.loadPool(ctx, level)
	if err != nil {
		return false, translate(op, "failed to load level content", err)
	}

	unlocked := false
	err = s.runUnit(ctx, op, func(ctx context.Context, repos store.Repositories) error {
		unlocked = false
		now := s.now()

		if level != s.cfg.FirstLevel {
			prev, err := repos.Progress.Get(ctx, learnerID, level-1)
			if err != nil && !store.IsNotFoundError(err) {
				return err
			}
			if !progression.CanUnlockNext(prev, s.cfg.UnlockThreshold) {
				return nil
			}
		}

		progress, err := s.prepareProgress(ctx, repos, learnerID, level, poolIDs, now)
		if err != nil {
			return err
		}
		unlocked = true
		if progress.IsUnlocked {
			return nil
		}

		next := progress.Clone()
		next.IsUnlocked = true
		next.UpdatedAt = now
		return repos.Progress.Update(ctx, next)
	})
	if err != nil {
		return false, translate(op, "failed to unlock level", err)
	}

	log.Debug("unlock level evaluated",
		slog.String("learner_id", learnerID.String()),
		slog.Int("level", level),
		slog.Bool("unlocked", unlocked))
	return unlocked, nil
}

// ResetLevel implements Service.ResetLevel
func (s *service) ResetLevel(ctx context.Context, learnerID uuid.UUID, level int) error {
	const op = "reset_level"

	if err := validateLearnerLevel(learnerID, level); err != nil {
		return err
	}

	_, poolIDs, err := s.loadPool(ctx, level)
	if err != nil {
		return translate(op, "failed to load level content", err)
	}

	err = s.runUnit(ctx, op, func(ctx context.Context, repos store.Repositories) error {
		now := s.now()
		progress, err := s.prepareProgress(ctx, repos, learnerID, level, poolIDs, now)
		if err != nil {
			return err
		}
		fresh, err := progression.Reset(progress, poolIDs, now)
		if err != nil {
			return err
		}
		return repos.Progress.Update(ctx, fresh)
	})
	if err != nil {
		return translate(op, "failed to reset level", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("level reset",
		slog.String("learner_id", learnerID.String()),
		slog.Int("level", level))
	return nil
}
