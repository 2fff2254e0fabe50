package domain

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Mode is the progression state of a learner on one level.
type Mode string

// Possible progression modes
const (
	ModeFirstRound Mode = "first_round"
	ModeReview     Mode = "review"
	ModeMaster     Mode = "master"
)

// QuestionStatus is the category a question occupies within a learner's progress on a level.
type QuestionStatus string

// Possible question statuses
const (
	StatusCleared  QuestionStatus = "cleared"
	StatusUnsolved QuestionStatus = "unsolved"
	StatusWrong    QuestionStatus = "wrong"
)

// Common validation errors for LevelProgress
var (
	ErrEmptyProgressLearnerID = errors.New("level progress learner ID cannot be empty")
	ErrInvalidLevel           = errors.New("level must be greater than 0")
	ErrInvalidMode            = errors.New("invalid progression mode")
	ErrInvalidQuestionStatus  = errors.New("invalid question status")
	ErrNegativeCounter        = errors.New("progress counters cannot be negative")
)

// LevelProgress tracks a learner's mastery of one level's question pool.
//
// Every question is tracked in a single status map, so a question can never sit in
// more than one category. The Cleared/Unsolved/Wrong views are derived from it.
type LevelProgress struct {
	LearnerID          uuid.UUID                 `json:"learner_id"`
	Level              int                       `json:"level"`
	Mode               Mode                      `json:"mode"`
	Rounds             int                       `json:"rounds"`
	TotalQuestions     int                       `json:"total_questions"`
	Statuses           map[string]QuestionStatus `json:"statuses"`
	CompletionRate     int                       `json:"completion_rate"` // percentage 0-100
	IsUnlocked         bool                      `json:"is_unlocked"`
	PerfectClearCount  int                       `json:"perfect_clear_count"`
	LastPerfectClearAt time.Time                 `json:"last_perfect_clear_at"`
	LastPlayedAt       time.Time                 `json:"last_played_at"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewLevelProgress creates a fresh FirstRound record with every question unsolved.
func NewLevelProgress(
	learnerID uuid.UUID,
	level int,
	questionIDs []string,
	unlocked bool,
	now time.Time,
) (*LevelProgress, error) {
	statuses := make(map[string]QuestionStatus, len(questionIDs))
	for _, id := range questionIDs {
		statuses[id] = StatusUnsolved
	}

	p := &LevelProgress{
		LearnerID:      learnerID,
		Level:          level,
		Mode:           ModeFirstRound,
		TotalQuestions: len(statuses),
		Statuses:       statuses,
		IsUnlocked:     unlocked,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.RecomputeCompletionRate()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks if the LevelProgress has valid data.
func (p *LevelProgress) Validate() error {
	if p.LearnerID == uuid.Nil {
		return ErrEmptyProgressLearnerID
	}

	if p.Level <= 0 {
		return ErrInvalidLevel
	}

	if !p.Mode.IsValid() {
		return ErrInvalidMode
	}

	if p.Rounds < 0 || p.TotalQuestions < 0 || p.PerfectClearCount < 0 {
		return ErrNegativeCounter
	}

	for _, status := range p.Statuses {
		if !status.IsValid() {
			return ErrInvalidQuestionStatus
		}
	}

	return nil
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeFirstRound, ModeReview, ModeMaster:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known question status.
func (s QuestionStatus) IsValid() bool {
	switch s {
	case StatusCleared, StatusUnsolved, StatusWrong:
		return true
	default:
		return false
	}
}

// Cleared returns the sorted identifiers of cleared questions.
func (p *LevelProgress) Cleared() []string { return p.idsWithStatus(StatusCleared) }

// Unsolved returns the sorted identifiers of unsolved questions.
func (p *LevelProgress) Unsolved() []string { return p.idsWithStatus(StatusUnsolved) }

// Wrong returns the sorted identifiers of wrongly answered questions.
func (p *LevelProgress) Wrong() []string { return p.idsWithStatus(StatusWrong) }

// Count returns how many questions currently have the given status.
func (p *LevelProgress) Count(status QuestionStatus) int {
	n := 0
	for _, s := range p.Statuses {
		if s == status {
			n++
		}
	}
	return n
}

// RecomputeCompletionRate derives CompletionRate from the status map.
func (p *LevelProgress) RecomputeCompletionRate() {
	p.CompletionRate = CompletionRate(p.Count(StatusCleared), p.TotalQuestions)
}

// Overlap returns how many of the given pool identifiers are tracked by this record.
func (p *LevelProgress) Overlap(poolIDs []string) int {
	n := 0
	for _, id := range poolIDs {
		if _, ok := p.Statuses[id]; ok {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so pure transitions never mutate their input.
func (p *LevelProgress) Clone() *LevelProgress {
	c := *p
	c.Statuses = make(map[string]QuestionStatus, len(p.Statuses))
	for id, s := range p.Statuses {
		c.Statuses[id] = s
	}
	return &c
}

func (p *LevelProgress) idsWithStatus(status QuestionStatus) []string {
	ids := make([]string, 0)
	for id, s := range p.Statuses {
		if s == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CompletionRate returns round(100 * cleared / total), or 0 for an empty pool.
func CompletionRate(cleared, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(cleared) / float64(total)))
}
