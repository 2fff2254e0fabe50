package srs

// Params defines all configurable parameters for the review scheduler
type Params struct {
	// IntervalDays is the ascending spaced-repetition sequence indexed by
	// ReviewEntry.ReviewIntervalIndex.
	IntervalDays []int

	// Difficulty weighting; the two weights should sum to 100.
	WrongRateWeight float64
	RecencyWeight   float64

	// InitialDifficulty is assigned on the very first miss of a question.
	InitialDifficulty int

	// RecencySteps maps days since the last miss to a recency score.
	// Steps are evaluated in order; the first step whose MaxDays exceeds the
	// elapsed days wins, otherwise RecencyFloor applies.
	RecencySteps []RecencyStep
	RecencyFloor float64
}

// RecencyStep is one threshold of the recency step function.
type RecencyStep struct {
	MaxDays int
	Score   float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	IntervalDays      []int
	InitialDifficulty int
}

// DefaultIntervalDays is the default review interval sequence.
var DefaultIntervalDays = []int{1, 3, 7, 14, 30, 90}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	intervals := make([]int, len(DefaultIntervalDays))
	copy(intervals, DefaultIntervalDays)

	return &Params{
		IntervalDays:      intervals,
		WrongRateWeight:   70,
		RecencyWeight:     30,
		InitialDifficulty: 50,
		RecencySteps: []RecencyStep{
			{MaxDays: 7, Score: 100},
			{MaxDays: 30, Score: 70},
			{MaxDays: 90, Score: 40},
		},
		RecencyFloor: 10,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Invalid overrides (empty or non-ascending sequences) are ignored.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if isAscending(config.IntervalDays) {
		params.IntervalDays = make([]int, len(config.IntervalDays))
		copy(params.IntervalDays, config.IntervalDays)
	}

	if config.InitialDifficulty > 0 && config.InitialDifficulty <= 100 {
		params.InitialDifficulty = config.InitialDifficulty
	}

	return params
}

func isAscending(days []int) bool {
	if len(days) == 0 {
		return false
	}
	for i, d := range days {
		if d <= 0 {
			return false
		}
		if i > 0 && d <= days[i-1] {
			return false
		}
	}
	return true
}
