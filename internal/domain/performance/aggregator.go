// Package performance maintains rolling per-level answer statistics.
package performance

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-quiz/internal/domain"
)

// ErrNilStatistics is returned when Apply is given no statistics to update.
var ErrNilStatistics = errors.New("level statistics cannot be nil")

// Apply returns a copy of stats updated with one answer.
//
// Accuracy is not stored; it is derived from CorrectCount and TotalAnswered
// by LevelStatistics.AverageAccuracy.
func Apply(stats *domain.LevelStatistics, questionID string, correct bool, now time.Time) (*domain.LevelStatistics, error) {
	if stats == nil {
		return nil, ErrNilStatistics
	}
	if questionID == "" {
		return nil, domain.ErrEmptyQuestionID
	}

	next := stats.Clone()
	next.TotalAnswered++

	if correct {
		next.CorrectCount++
		next.CurrentStreak++
		if next.CurrentStreak > next.BestStreak {
			next.BestStreak = next.CurrentStreak
		}
	} else {
		next.CurrentStreak = 0
	}

	next.PlayCounts[questionID]++
	next.LastAnsweredAt = now
	next.UpdatedAt = now

	return next, nil
}
