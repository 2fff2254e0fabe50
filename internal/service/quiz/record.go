package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/domain/performance"
	"github.com/phrazzld/scry-quiz/internal/domain/progression"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// recordResult is what one applied answer produced.
type recordResult struct {
	progress  *domain.LevelProgress
	outcome   progression.Outcome
	duplicate bool
}

// RecordAnswer implements Service.RecordAnswer
func (s *service) RecordAnswer(ctx context.Context, answer AnswerSubmission) (*domain.LevelProgress, error) {
	const op = "record_answer"
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateLearnerLevel(answer.LearnerID, answer.Level); err != nil {
		return nil, err
	}
	if answer.QuestionID == "" {
		return nil, ErrInvalidQuestion
	}
	if answer.EventID == uuid.Nil {
		answer.EventID = uuid.New()
	}

	_, poolIDs, err := s.loadPool(ctx, answer.Level)
	if err != nil {
		return nil, translate(op, "failed to load level content", err)
	}
	if !slices.Contains(poolIDs, answer.QuestionID) {
		log.Warn("answer for question outside the level pool",
			slog.String("learner_id", answer.LearnerID.String()),
			slog.Int("level", answer.Level),
			slog.String("question_id", answer.QuestionID))
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, answer.QuestionID)
	}

	var result recordResult
	err = s.runUnit(ctx, op, func(ctx context.Context, repos store.Repositories) error {
		r, err := s.applyAnswer(ctx, repos, answer, poolIDs, s.now())
		result = r
		return err
	})
	if err != nil {
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("learner_id", answer.LearnerID.String()),
			slog.Int("level", answer.Level),
			slog.String("question_id", answer.QuestionID),
			slog.String("event_id", answer.EventID.String()))
		return nil, translate(op, "failed to record answer", err)
	}

	if result.duplicate {
		log.Info("answer event already applied",
			slog.String("event_id", answer.EventID.String()),
			slog.String("learner_id", answer.LearnerID.String()))
		return result.progress, nil
	}

	s.publish(ctx, answer, result)

	log.Debug("recorded answer",
		slog.String("learner_id", answer.LearnerID.String()),
		slog.Int("level", answer.Level),
		slog.String("question_id", answer.QuestionID),
		slog.Bool("correct", answer.Correct),
		slog.String("mode", string(result.progress.Mode)),
		slog.Int("completion_rate", result.progress.CompletionRate))
	return result.progress, nil
}

// applyAnswer is the body of the record-answer unit of work.
func (s *service) applyAnswer(
	ctx context.Context,
	repos store.Repositories,
	answer AnswerSubmission,
	poolIDs []string,
	now time.Time,
) (recordResult, error) {
	progress, err := s.prepareProgress(ctx, repos, answer.LearnerID, answer.Level, poolIDs, now)
	if err != nil {
		return recordResult{}, err
	}

	applied, err := repos.Answers.Exists(ctx, answer.EventID)
	if err != nil {
		return recordResult{}, err
	}
	if applied {
		return recordResult{progress: progress, duplicate: true}, nil
	}

	next, outcome, err := progression.ApplyAnswer(progress, answer.QuestionID, answer.Correct, now)
	if err != nil {
		return recordResult{}, err
	}

	if err := s.updateLedger(ctx, repos, answer, outcome, now); err != nil {
		return recordResult{}, err
	}

	stats, err := repos.Statistics.GetForUpdate(ctx, answer.LearnerID, answer.Level)
	if store.IsNotFoundError(err) {
		stats, err = domain.NewLevelStatistics(answer.LearnerID, answer.Level), nil
	}
	if err != nil {
		return recordResult{}, err
	}
	stats, err = performance.Apply(stats, answer.QuestionID, answer.Correct, now)
	if err != nil {
		return recordResult{}, err
	}
	if err := repos.Statistics.Upsert(ctx, stats); err != nil {
		return recordResult{}, err
	}

	if err := repos.Progress.Update(ctx, next); err != nil {
		return recordResult{}, err
	}

	err = repos.Answers.Create(ctx, &domain.AnswerEvent{
		ID:         answer.EventID,
		LearnerID:  answer.LearnerID,
		Level:      answer.Level,
		QuestionID: answer.QuestionID,
		Correct:    answer.Correct,
		RecordedAt: now,
	})
	if err != nil {
		return recordResult{}, err
	}

	return recordResult{progress: next, outcome: outcome}, nil
}

// updateLedger applies the review ledger side of an answer.
func (s *service) updateLedger(
	ctx context.Context,
	repos store.Repositories,
	answer AnswerSubmission,
	outcome progression.Outcome,
	now time.Time,
) error {
	if outcome.Ledger == progression.LedgerNone {
		return nil
	}

	entry, err := repos.Ledger.GetForUpdate(ctx, answer.LearnerID, answer.QuestionID)
	if err != nil && !store.IsNotFoundError(err) {
		return err
	}

	var next *domain.ReviewEntry
	switch outcome.Ledger {
	case progression.LedgerWrong:
		next, err = s.scheduler.OnWrong(entry, answer.LearnerID, answer.QuestionID, answer.Level, now)
	case progression.LedgerResolved:
		if entry == nil {
			// A miss recorded before the ledger existed has nothing to resolve.
			logger.FromContextOrDefault(ctx, s.logger).Warn("resolved question has no ledger entry",
				slog.String("learner_id", answer.LearnerID.String()),
				slog.String("question_id", answer.QuestionID))
			return nil
		}
		next, err = s.scheduler.OnResolved(entry, now)
	}
	if err != nil {
		return err
	}

	return repos.Ledger.Upsert(ctx, next)
}
