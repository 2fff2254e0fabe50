package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ReviewEntry
var (
	ErrEmptyReviewLearnerID   = errors.New("review entry learner ID cannot be empty")
	ErrEmptyReviewQuestionID  = errors.New("review entry question ID cannot be empty")
	ErrInvalidIntervalIndex   = errors.New("review interval index must be greater than or equal to 0")
	ErrInvalidDifficultyScore = errors.New("difficulty score must be between 0 and 100")
)

// ReviewEntry is a learner's miss history for one question. Entries are only
// created once a question has been answered wrongly and are never deleted.
type ReviewEntry struct {
	LearnerID           uuid.UUID `json:"learner_id"`
	QuestionID          string    `json:"question_id"`
	Level               int       `json:"level"`
	TotalWrongCount     int       `json:"total_wrong_count"`
	RecentWrongCount    int       `json:"recent_wrong_count"`
	ResolvedCount       int       `json:"resolved_count"`
	ReviewIntervalIndex int       `json:"review_interval_index"`
	DifficultyScore     int       `json:"difficulty_score"`
	LastWrongAt         time.Time `json:"last_wrong_at"`
	LastEventAt         time.Time `json:"last_event_at"`
	NextReviewAt        time.Time `json:"next_review_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Validate checks if the ReviewEntry has valid data.
func (e *ReviewEntry) Validate() error {
	if e.LearnerID == uuid.Nil {
		return ErrEmptyReviewLearnerID
	}

	if e.QuestionID == "" {
		return ErrEmptyReviewQuestionID
	}

	if e.Level <= 0 {
		return ErrInvalidLevel
	}

	if e.ReviewIntervalIndex < 0 {
		return ErrInvalidIntervalIndex
	}

	if e.DifficultyScore < 0 || e.DifficultyScore > 100 {
		return ErrInvalidDifficultyScore
	}

	if e.TotalWrongCount < 0 || e.RecentWrongCount < 0 || e.ResolvedCount < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// IsDue reports whether the entry is eligible for review at now.
func (e *ReviewEntry) IsDue(now time.Time) bool {
	return !e.NextReviewAt.After(now)
}

// Clone returns a copy of the entry.
func (e *ReviewEntry) Clone() *ReviewEntry {
	c := *e
	return &c
}
