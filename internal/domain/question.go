package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Question and AnswerEvent
var (
	ErrEmptyQuestionID       = errors.New("question ID cannot be empty")
	ErrInvalidAnswerIndex    = errors.New("correct answer index is out of range")
	ErrEmptyAnswerEventID    = errors.New("answer event ID cannot be empty")
	ErrEmptyAnswerLearnerID  = errors.New("answer event learner ID cannot be empty")
	ErrEmptyAnswerQuestionID = errors.New("answer event question ID cannot be empty")
)

// Question is one item of a level's content pool. The pool is owned by an
// external content system and is read-only here.
type Question struct {
	ID                 string   `json:"id"`
	Level              int      `json:"level"`
	Position           int      `json:"position"`
	Content            string   `json:"content"`
	Choices            []string `json:"choices"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Category           string   `json:"category"`
}

// Validate checks if the Question has valid data.
func (q *Question) Validate() error {
	if q.ID == "" {
		return ErrEmptyQuestionID
	}

	if q.Level <= 0 {
		return ErrInvalidLevel
	}

	if len(q.Choices) > 0 && (q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Choices)) {
		return ErrInvalidAnswerIndex
	}

	return nil
}

// QuestionIDs returns the identifiers of the given questions in pool order.
func QuestionIDs(questions []Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// AnswerEvent is one answer submission. Its ID is the idempotency key of the
// record-answer operation.
type AnswerEvent struct {
	ID         uuid.UUID `json:"id"`
	LearnerID  uuid.UUID `json:"learner_id"`
	Level      int       `json:"level"`
	QuestionID string    `json:"question_id"`
	Correct    bool      `json:"correct"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks if the AnswerEvent has valid data.
func (e *AnswerEvent) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyAnswerEventID
	}

	if e.LearnerID == uuid.Nil {
		return ErrEmptyAnswerLearnerID
	}

	if e.Level <= 0 {
		return ErrInvalidLevel
	}

	if e.QuestionID == "" {
		return ErrEmptyAnswerQuestionID
	}

	return nil
}
