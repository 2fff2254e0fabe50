package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// Type identifies the kind of a domain event.
type Type string

// Event types emitted by the quiz engine
const (
	TypeAnswerRecorded   Type = "answer.recorded"
	TypeLevelModeChanged Type = "level.mode_changed"
	TypeLevelMastered    Type = "level.mastered"
)

// Event is a domain event published after a state change was committed.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type      Type      `json:"type"`
	LearnerID uuid.UUID `json:"learner_id"`
	Level     int       `json:"level"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is the time of the state change, not of delivery
	OccurredAt time.Time `json:"occurred_at"`
}

// AnswerRecordedPayload is the payload of TypeAnswerRecorded.
type AnswerRecordedPayload struct {
	EventID        uuid.UUID             `json:"event_id"`
	QuestionID     string                `json:"question_id"`
	Correct        bool                  `json:"correct"`
	From           domain.QuestionStatus `json:"from"`
	To             domain.QuestionStatus `json:"to"`
	CompletionRate int                   `json:"completion_rate"`
}

// ModeChangedPayload is the payload of TypeLevelModeChanged.
type ModeChangedPayload struct {
	From   domain.Mode `json:"from"`
	To     domain.Mode `json:"to"`
	Rounds int         `json:"rounds"`
}

// LevelMasteredPayload is the payload of TypeLevelMastered. It is emitted on
// the first mastery and on every re-confirmation.
type LevelMasteredPayload struct {
	PerfectClearCount int       `json:"perfect_clear_count"`
	Reconfirmed       bool      `json:"reconfirmed"`
	MasteredAt        time.Time `json:"mastered_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType Type, learnerID uuid.UUID, level int, payload interface{}, occurredAt time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		LearnerID:  learnerID,
		Level:      level,
		Payload:    payloadBytes,
		OccurredAt: occurredAt,
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns the first handler error, after every handler has run.
	EmitEvent(ctx context.Context, event *Event) error
}
