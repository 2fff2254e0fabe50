package srs

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
)

const day = 24 * time.Hour

// intervalFor returns the review delay for an interval index, clamping the
// index into the configured sequence.
func intervalFor(index int, params *Params) time.Duration {
	index = clampIndex(index, params)
	return time.Duration(params.IntervalDays[index]) * day
}

func clampIndex(index int, params *Params) int {
	if index < 0 {
		return 0
	}
	if last := len(params.IntervalDays) - 1; index > last {
		return last
	}
	return index
}

// recencyScore maps the time since the last miss onto the recency step function.
// Elapsed time is measured in whole days.
func recencyScore(lastWrongAt, now time.Time, params *Params) float64 {
	days := int(now.Sub(lastWrongAt) / day)
	if days < 0 {
		days = 0
	}
	for _, step := range params.RecencySteps {
		if days < step.MaxDays {
			return step.Score
		}
	}
	return params.RecencyFloor
}

// calculateDifficulty computes round(wrongRate*70 + recency*30) with the
// weights taken from params. wrongRate is 0 when there is no history.
//
// The recency score is on a 0-100 scale, so it is normalized before weighting.
func calculateDifficulty(entry *domain.ReviewEntry, now time.Time, params *Params) int {
	var wrongRate float64
	if denom := entry.TotalWrongCount + entry.ResolvedCount; denom > 0 {
		wrongRate = float64(entry.TotalWrongCount) / float64(denom)
	}

	recency := recencyScore(entry.LastWrongAt, now, params) / 100
	score := int(math.Round(wrongRate*params.WrongRateWeight + recency*params.RecencyWeight))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// calculateAfterWrong returns the entry that results from a wrong answer.
// A nil entry means the question has never been missed: a new entry is
// created with the initial difficulty score.
func calculateAfterWrong(
	entry *domain.ReviewEntry,
	learnerID uuid.UUID,
	questionID string,
	level int,
	now time.Time,
	params *Params,
) *domain.ReviewEntry {
	if entry == nil {
		return &domain.ReviewEntry{
			LearnerID:           learnerID,
			QuestionID:          questionID,
			Level:               level,
			TotalWrongCount:     1,
			RecentWrongCount:    1,
			ReviewIntervalIndex: 0,
			DifficultyScore:     params.InitialDifficulty,
			LastWrongAt:         now,
			LastEventAt:         now,
			NextReviewAt:        now.Add(intervalFor(0, params)),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
	}

	next := entry.Clone()
	next.TotalWrongCount++
	next.RecentWrongCount++
	next.ReviewIntervalIndex = 0
	next.LastWrongAt = now
	next.LastEventAt = now
	next.NextReviewAt = now.Add(intervalFor(0, params))
	next.DifficultyScore = calculateDifficulty(next, now, params)
	next.UpdatedAt = now

	return next
}

// calculateAfterResolved returns the entry that results from re-clearing a
// previously missed question. The interval index advances by one, capped at
// the end of the sequence.
func calculateAfterResolved(entry *domain.ReviewEntry, now time.Time, params *Params) *domain.ReviewEntry {
	next := entry.Clone()
	next.ResolvedCount++
	next.RecentWrongCount = 0
	next.ReviewIntervalIndex = clampIndex(entry.ReviewIntervalIndex+1, params)
	next.LastEventAt = now
	next.NextReviewAt = now.Add(intervalFor(next.ReviewIntervalIndex, params))
	next.DifficultyScore = calculateDifficulty(next, now, params)
	next.UpdatedAt = now

	return next
}
