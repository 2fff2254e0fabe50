package srs

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

// Common errors
var (
	ErrNilEntry        = errors.New("review entry cannot be nil")
	ErrEmptyQuestionID = errors.New("question ID cannot be empty")
	ErrEmptyLearnerID  = errors.New("learner ID cannot be empty")
)

// Service defines the interface for review scheduling operations.
// All methods are pure: they never mutate their inputs and perform no I/O.
type Service interface {
	// OnWrong records a miss. A nil entry creates a new ledger entry.
	OnWrong(
		entry *domain.ReviewEntry,
		learnerID uuid.UUID,
		questionID string,
		level int,
		now time.Time,
	) (*domain.ReviewEntry, error)

	// OnResolved records that a previously missed question was answered correctly.
	OnResolved(entry *domain.ReviewEntry, now time.Time) (*domain.ReviewEntry, error)

	// DueForReview filters entries whose NextReviewAt is at or before now,
	// ordered most overdue first.
	DueForReview(entries []*domain.ReviewEntry, now time.Time) []*domain.ReviewEntry

	// DifficultyScore computes the current difficulty of an entry at now.
	DifficultyScore(entry *domain.ReviewEntry, now time.Time) int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// OnWrong implements Service.OnWrong
func (s *defaultService) OnWrong(
	entry *domain.ReviewEntry,
	learnerID uuid.UUID,
	questionID string,
	level int,
	now time.Time,
) (*domain.ReviewEntry, error) {
	if entry == nil {
		if learnerID == uuid.Nil {
			return nil, ErrEmptyLearnerID
		}
		if questionID == "" {
			return nil, ErrEmptyQuestionID
		}
	}

	return calculateAfterWrong(entry, learnerID, questionID, level, now, s.params), nil
}

// OnResolved implements Service.OnResolved
func (s *defaultService) OnResolved(entry *domain.ReviewEntry, now time.Time) (*domain.ReviewEntry, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	return calculateAfterResolved(entry, now, s.params), nil
}

// DueForReview implements Service.DueForReview
func (s *defaultService) DueForReview(entries []*domain.ReviewEntry, now time.Time) []*domain.ReviewEntry {
	due := make([]*domain.ReviewEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil && e.IsDue(now) {
			due = append(due, e)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].QuestionID < due[j].QuestionID
		}
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})

	return due
}

// DifficultyScore implements Service.DifficultyScore
func (s *defaultService) DifficultyScore(entry *domain.ReviewEntry, now time.Time) int {
	if entry == nil {
		return 0
	}
	return calculateDifficulty(entry, now, s.params)
}
