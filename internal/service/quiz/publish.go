package quiz

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/events"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
)

type pendingEvent struct {
	eventType events.Type
	payload   interface{}
}

// publish emits the domain events of a committed answer. Delivery failures
// are logged and never reach the caller.
func (s *service) publish(ctx context.Context, answer AnswerSubmission, result recordResult) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	progress := result.progress
	outcome := result.outcome

	pending := []pendingEvent{{
		eventType: events.TypeAnswerRecorded,
		payload: events.AnswerRecordedPayload{
			EventID:        answer.EventID,
			QuestionID:     answer.QuestionID,
			Correct:        answer.Correct,
			From:           outcome.From,
			To:             outcome.To,
			CompletionRate: progress.CompletionRate,
		},
	}}
	if outcome.ModeChanged() {
		pending = append(pending, pendingEvent{
			eventType: events.TypeLevelModeChanged,
			payload: events.ModeChangedPayload{
				From:   outcome.PreviousMode,
				To:     outcome.Mode,
				Rounds: progress.Rounds,
			},
		})
	}
	if outcome.Mastered {
		pending = append(pending, pendingEvent{
			eventType: events.TypeLevelMastered,
			payload: events.LevelMasteredPayload{
				PerfectClearCount: progress.PerfectClearCount,
				Reconfirmed:       outcome.PreviousMode == domain.ModeMaster,
				MasteredAt:        progress.LastPerfectClearAt,
			},
		})
	}

	for _, p := range pending {
		event, err := events.NewEvent(p.eventType, answer.LearnerID, answer.Level, p.payload, progress.UpdatedAt)
		if err != nil {
			log.Error("failed to build domain event",
				slog.String("error", err.Error()),
				slog.String("event_type", string(p.eventType)))
			continue
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("domain event delivery failed",
				slog.String("error", err.Error()),
				slog.String("event_type", string(p.eventType)),
				slog.String("event_id", event.ID.String()))
		}
	}
}
