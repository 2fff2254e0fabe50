// Package progression implements the per-level progression state machine.
//
// It is pure: functions take the current LevelProgress and an answer and
// return a new LevelProgress plus an Outcome describing what changed. The
// caller decides how the outcome feeds the review ledger and statistics.
package progression

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-quiz/internal/domain"
)

// DefaultUnlockThreshold is the completion rate a level needs before the next one can be unlocked.
const DefaultUnlockThreshold = 70

// Common errors
var (
	ErrNilProgress     = errors.New("level progress cannot be nil")
	ErrEmptyQuestionID = errors.New("question ID cannot be empty")
)

// LedgerAction tells the caller how the review ledger must react to an answer.
type LedgerAction int

// Possible ledger actions
const (
	LedgerNone LedgerAction = iota
	LedgerWrong
	LedgerResolved
)

// Outcome describes the effect of one answer on a level.
type Outcome struct {
	QuestionID string
	Correct    bool

	From domain.QuestionStatus
	To   domain.QuestionStatus

	// Added is true when the question was in the pool but not yet tracked.
	Added bool

	Ledger LedgerAction

	PreviousMode domain.Mode
	Mode         domain.Mode

	// Mastered is true when this answer entered MasterMode or re-confirmed it.
	Mastered bool
}

// ModeChanged reports whether the answer moved the level to another mode.
func (o Outcome) ModeChanged() bool {
	return o.PreviousMode != o.Mode
}

// nextStatus applies the set-transition table: the destination depends only on
// the answer, whatever category the question was in.
func nextStatus(correct bool) domain.QuestionStatus {
	if correct {
		return domain.StatusCleared
	}
	return domain.StatusWrong
}

// ledgerActionFor reports the ledger side effect of a transition. Every miss
// is recorded; only a wrong-to-cleared move counts as a resolution.
func ledgerActionFor(from domain.QuestionStatus, correct bool) LedgerAction {
	switch {
	case !correct:
		return LedgerWrong
	case from == domain.StatusWrong:
		return LedgerResolved
	default:
		return LedgerNone
	}
}

// ApplyAnswer moves questionID between categories, recomputes the completion
// rate, evaluates mode transitions and stamps the play timestamps.
//
// A question the record does not track yet (pool content added after
// initialization) is treated as unsolved and TotalQuestions grows by one.
// Callers must reject identifiers that are not in the level pool before
// calling ApplyAnswer.
func ApplyAnswer(
	progress *domain.LevelProgress,
	questionID string,
	correct bool,
	now time.Time,
) (*domain.LevelProgress, Outcome, error) {
	if progress == nil {
		return nil, Outcome{}, ErrNilProgress
	}
	if questionID == "" {
		return nil, Outcome{}, ErrEmptyQuestionID
	}

	next := progress.Clone()

	from, tracked := next.Statuses[questionID]
	if !tracked {
		from = domain.StatusUnsolved
		next.TotalQuestions++
	}

	wrongBefore := next.Count(domain.StatusWrong)
	to := nextStatus(correct)
	next.Statuses[questionID] = to
	next.RecomputeCompletionRate()

	outcome := Outcome{
		QuestionID:   questionID,
		Correct:      correct,
		From:         from,
		To:           to,
		Added:        !tracked,
		Ledger:       ledgerActionFor(from, correct),
		PreviousMode: progress.Mode,
	}

	outcome.Mastered = advanceMode(next, wrongBefore, now)
	outcome.Mode = next.Mode

	next.LastPlayedAt = now
	next.UpdatedAt = now

	return next, outcome, nil
}

// advanceMode evaluates the mode transitions on an already updated record and
// reports whether mastery was entered or re-confirmed. Both transitions can
// fire on the same answer.
func advanceMode(p *domain.LevelProgress, wrongBefore int, now time.Time) bool {
	cleared := p.Count(domain.StatusCleared)
	wrong := p.Count(domain.StatusWrong)

	if p.Mode == domain.ModeFirstRound && cleared+wrong >= p.TotalQuestions {
		p.Mode = domain.ModeReview
		p.Rounds++
	}

	switch p.Mode {
	case domain.ModeReview:
		if wrong == 0 {
			p.Mode = domain.ModeMaster
			markPerfectClear(p, now)
			return true
		}
	case domain.ModeMaster:
		// Re-entrant: clearing the last outstanding miss re-confirms mastery.
		if wrongBefore > 0 && wrong == 0 {
			markPerfectClear(p, now)
			return true
		}
	}

	return false
}

func markPerfectClear(p *domain.LevelProgress, now time.Time) {
	p.PerfectClearCount++
	p.LastPerfectClearAt = now
}

// Reinitialize rebuilds a record from the current pool. The one-way unlock
// flag and the monotonic counters survive; mastery state does not.
func Reinitialize(
	progress *domain.LevelProgress,
	questionIDs []string,
	now time.Time,
) (*domain.LevelProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	fresh, err := domain.NewLevelProgress(progress.LearnerID, progress.Level, questionIDs, progress.IsUnlocked, now)
	if err != nil {
		return nil, err
	}

	fresh.Rounds = progress.Rounds
	fresh.PerfectClearCount = progress.PerfectClearCount
	fresh.LastPerfectClearAt = progress.LastPerfectClearAt
	fresh.CreatedAt = progress.CreatedAt

	return fresh, nil
}

// NeedsRepair reports whether the stored record no longer matches the pool:
// the pool has content but none of it is tracked by the record.
func NeedsRepair(progress *domain.LevelProgress, poolIDs []string) bool {
	if progress == nil || len(poolIDs) == 0 {
		return false
	}
	return progress.Overlap(poolIDs) == 0
}

// Drifted reports whether the record still overlaps the pool but tracks
// questions the pool no longer serves, or misses questions it now serves.
func Drifted(progress *domain.LevelProgress, poolIDs []string) bool {
	if progress == nil || len(poolIDs) == 0 || NeedsRepair(progress, poolIDs) {
		return false
	}

	inPool := make(map[string]struct{}, len(poolIDs))
	for _, id := range poolIDs {
		inPool[id] = struct{}{}
		if _, tracked := progress.Statuses[id]; !tracked {
			return true
		}
	}
	for id := range progress.Statuses {
		if _, ok := inPool[id]; !ok {
			return true
		}
	}
	return progress.TotalQuestions != len(inPool)
}

// Realign fits a partially overlapping record to the pool: questions that
// left the pool are dropped, new ones start unsolved and the total and
// completion rate follow the pool. Mode and counters are kept; the next
// answer re-evaluates mode transitions against the realigned sets.
func Realign(progress *domain.LevelProgress, poolIDs []string, now time.Time) (*domain.LevelProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	next := progress.Clone()
	next.Statuses = make(map[string]domain.QuestionStatus, len(poolIDs))
	for _, id := range poolIDs {
		if status, ok := progress.Statuses[id]; ok {
			next.Statuses[id] = status
			continue
		}
		next.Statuses[id] = domain.StatusUnsolved
	}
	next.TotalQuestions = len(next.Statuses)
	next.RecomputeCompletionRate()
	next.UpdatedAt = now

	return next, nil
}

// CanUnlockNext reports whether prev's completion rate meets the unlock gate.
func CanUnlockNext(prev *domain.LevelProgress, threshold int) bool {
	if prev == nil {
		return false
	}
	return prev.CompletionRate >= threshold
}

// Reset rebuilds a record from scratch for a learner-initiated reset. Only the
// unlock flag and the creation time are kept.
func Reset(progress *domain.LevelProgress, questionIDs []string, now time.Time) (*domain.LevelProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	fresh, err := domain.NewLevelProgress(progress.LearnerID, progress.Level, questionIDs, progress.IsUnlocked, now)
	if err != nil {
		return nil, err
	}
	fresh.CreatedAt = progress.CreatedAt

	return fresh, nil
}
