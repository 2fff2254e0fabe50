package srs

import (
	"testing"
)

func TestNewDefaultParams(t *testing.T) {
	params := NewDefaultParams()

	want := []int{1, 3, 7, 14, 30, 90}
	if len(params.IntervalDays) != len(want) {
		t.Fatalf("Expected %d intervals, got %d", len(want), len(params.IntervalDays))
	}
	for i, d := range want {
		if params.IntervalDays[i] != d {
			t.Errorf("IntervalDays[%d] should be %d, got %d", i, d, params.IntervalDays[i])
		}
	}

	if params.WrongRateWeight+params.RecencyWeight != 100 {
		t.Errorf("Weights should sum to 100, got %f", params.WrongRateWeight+params.RecencyWeight)
	}

	if params.InitialDifficulty != 50 {
		t.Errorf("InitialDifficulty should be 50, got %d", params.InitialDifficulty)
	}

	// Mutating the params must not leak into the package default
	params.IntervalDays[0] = 99
	if DefaultIntervalDays[0] != 1 {
		t.Errorf("DefaultIntervalDays was mutated through params")
	}
}

func TestNewParams(t *testing.T) {
	testCases := []struct {
		name          string
		config        ParamsConfig
		wantIntervals []int
		wantInitial   int
	}{
		{
			name:          "empty config keeps defaults",
			config:        ParamsConfig{},
			wantIntervals: []int{1, 3, 7, 14, 30, 90},
			wantInitial:   50,
		},
		{
			name:          "custom ascending sequence",
			config:        ParamsConfig{IntervalDays: []int{1, 2, 4}, InitialDifficulty: 60},
			wantIntervals: []int{1, 2, 4},
			wantInitial:   60,
		},
		{
			name:          "non ascending sequence ignored",
			config:        ParamsConfig{IntervalDays: []int{3, 1}},
			wantIntervals: []int{1, 3, 7, 14, 30, 90},
			wantInitial:   50,
		},
		{
			name:          "zero day interval ignored",
			config:        ParamsConfig{IntervalDays: []int{0, 1}, InitialDifficulty: 101},
			wantIntervals: []int{1, 3, 7, 14, 30, 90},
			wantInitial:   50,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := NewParams(tc.config)

			if len(params.IntervalDays) != len(tc.wantIntervals) {
				t.Fatalf("Expected intervals %v, got %v", tc.wantIntervals, params.IntervalDays)
			}
			for i := range tc.wantIntervals {
				if params.IntervalDays[i] != tc.wantIntervals[i] {
					t.Errorf("Expected intervals %v, got %v", tc.wantIntervals, params.IntervalDays)
					break
				}
			}
			if params.InitialDifficulty != tc.wantInitial {
				t.Errorf("Expected initial difficulty %d, got %d", tc.wantInitial, params.InitialDifficulty)
			}
		})
	}
}
