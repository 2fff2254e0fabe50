package domain

import (
	"time"

	"github.com/google/uuid"
)

// LevelStatistics holds a learner's running performance totals for one level.
type LevelStatistics struct {
	LearnerID      uuid.UUID      `json:"learner_id"`
	Level          int            `json:"level"`
	TotalAnswered  int            `json:"total_answered"`
	CorrectCount   int            `json:"correct_count"`
	CurrentStreak  int            `json:"current_streak"`
	BestStreak     int            `json:"best_streak"`
	PlayCounts     map[string]int `json:"play_counts"`
	LastAnsweredAt time.Time      `json:"last_answered_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewLevelStatistics creates empty statistics for a learner and level.
func NewLevelStatistics(learnerID uuid.UUID, level int) *LevelStatistics {
	return &LevelStatistics{
		LearnerID:  learnerID,
		Level:      level,
		PlayCounts: make(map[string]int),
	}
}

// AverageAccuracy is derived from the correct count, never stored on its own.
func (s *LevelStatistics) AverageAccuracy() float64 {
	if s.TotalAnswered == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalAnswered)
}

// Clone returns a deep copy of the statistics.
func (s *LevelStatistics) Clone() *LevelStatistics {
	c := *s
	c.PlayCounts = make(map[string]int, len(s.PlayCounts))
	for id, n := range s.PlayCounts {
		c.PlayCounts[id] = n
	}
	return &c
}
