// Package selection draws batches of questions from a learner's categorized
// question sets using mode-dependent weights.
package selection

import (
	"sort"
	"time"

	"github.com/phrazzld/scry-quiz/internal/domain"
)

// LedgerPoolSize caps how many historically missed questions feed the wrong
// pool of a mastered level that has no current misses.
const LedgerPoolSize = 20

const day = 24 * time.Hour

// Weights is the probability of drawing from each category. A triple should
// sum to 1.0; Select normalizes whatever it is given.
type Weights struct {
	Cleared  float64
	Unsolved float64
	Wrong    float64
}

// Sets holds the question identifiers of each category.
type Sets struct {
	Cleared  []string
	Unsolved []string
	Wrong    []string
}

// Len returns the number of identifiers across all categories, counting
// duplicates once per occurrence.
func (s Sets) Len() int {
	return len(s.Cleared) + len(s.Unsolved) + len(s.Wrong)
}

// Predefined weight triples
var (
	FirstRoundWeights    = Weights{Cleared: 0.05, Unsolved: 0.80, Wrong: 0.15}
	ReviewWeights        = Weights{Cleared: 0.30, Unsolved: 0, Wrong: 0.70}
	ReinforcementWeights = Weights{Cleared: 1.00, Unsolved: 0, Wrong: 0}
	MasterRecallWeights  = Weights{Cleared: 0.70, Unsolved: 0, Wrong: 0.30}
	MasterRefreshWeights = Weights{Cleared: 0.50, Unsolved: 0, Wrong: 0.50}
)

const (
	masterRecentClearDays  = 7
	masterRefreshAfterDays = 30
)

// WeightsFor returns the weight triple for a mode.
//
// In MasterMode the triple depends on the days since the last perfect clear.
// A level that was never perfectly cleared is treated as long overdue.
func WeightsFor(mode domain.Mode, hasWrong bool, lastPerfectClearAt, now time.Time) Weights {
	switch mode {
	case domain.ModeReview:
		if hasWrong {
			return ReviewWeights
		}
		return ReinforcementWeights
	case domain.ModeMaster:
		if lastPerfectClearAt.IsZero() {
			return MasterRefreshWeights
		}
		days := int(now.Sub(lastPerfectClearAt) / day)
		switch {
		case days < masterRecentClearDays:
			return ReinforcementWeights
		case days <= masterRefreshAfterDays:
			return MasterRecallWeights
		default:
			return MasterRefreshWeights
		}
	default:
		return FirstRoundWeights
	}
}

// LedgerPool returns up to limit question identifiers from the ledger for the
// given level, hardest first (ties by question ID). Only identifiers accepted
// by inPool are returned.
func LedgerPool(entries []*domain.ReviewEntry, level int, inPool func(string) bool, limit int) []string {
	candidates := make([]*domain.ReviewEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Level != level {
			continue
		}
		if inPool != nil && !inPool(e.QuestionID) {
			continue
		}
		candidates = append(candidates, e)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DifficultyScore == candidates[j].DifficultyScore {
			return candidates[i].QuestionID < candidates[j].QuestionID
		}
		return candidates[i].DifficultyScore > candidates[j].DifficultyScore
	})

	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ids := make([]string, len(candidates))
	for i, e := range candidates {
		ids[i] = e.QuestionID
	}
	return ids
}

// Plan derives the categorized sets and weights for a learner's level.
// ledger is only consulted for a mastered level with no current misses; its
// entries are filtered by inPool before the LedgerPoolSize cut, and a nil
// inPool accepts the identifiers the record tracks.
func Plan(
	progress *domain.LevelProgress,
	ledger []*domain.ReviewEntry,
	inPool func(string) bool,
	now time.Time,
) (Sets, Weights) {
	sets := Sets{
		Cleared:  progress.Cleared(),
		Unsolved: progress.Unsolved(),
		Wrong:    progress.Wrong(),
	}

	if progress.Mode == domain.ModeMaster && len(sets.Wrong) == 0 {
		if inPool == nil {
			inPool = func(id string) bool {
				_, ok := progress.Statuses[id]
				return ok
			}
		}
		sets.Wrong = LedgerPool(ledger, progress.Level, inPool, LedgerPoolSize)
	}

	weights := WeightsFor(progress.Mode, len(sets.Wrong) > 0, progress.LastPerfectClearAt, now)
	return sets, weights
}
