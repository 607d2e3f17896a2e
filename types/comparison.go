package types

import (
	"fmt"
)

// Comparison relates the latency of a candidate endpoint to
// a baseline endpoint.
type Comparison struct {
	Baseline       Result `json:"baseline"`
	Candidate      Result `json:"candidate"`
	BaselineStats  Stats  `json:"baseline_stats"`
	CandidateStats Stats  `json:"candidate_stats"`

	// Slowdown is the candidate mean divided by the baseline mean.
	Slowdown float64 `json:"slowdown"`
}

// Compare computes the statistics of both results and the
// slowdown ratio between them. Either side without a single
// successful sample yields an error wrapping ErrNoSamples.
func Compare(baseline, candidate Result) (Comparison, error) {
	c := Comparison{Baseline: baseline, Candidate: candidate}

	var err error
	c.BaselineStats, err = baseline.ComputeStats()
	if err != nil {
		return c, fmt.Errorf("%s: %w", baseline.Title, err)
	}
	c.CandidateStats, err = candidate.ComputeStats()
	if err != nil {
		return c, fmt.Errorf("%s: %w", candidate.Title, err)
	}
	if c.BaselineStats.Mean == 0 {
		return c, fmt.Errorf("%s: %w", baseline.Title, ErrZeroBaseline)
	}

	c.Slowdown = float64(c.CandidateStats.Mean) / float64(c.BaselineStats.Mean)
	return c, nil
}

// SlowdownText renders the slowdown ratio with one decimal place.
func (c Comparison) SlowdownText() string {
	return fmt.Sprintf("%.1fx", c.Slowdown)
}

// Verdict is the human-readable sentence about the slowdown.
func (c Comparison) Verdict() string {
	word := "slower"
	if c.Slowdown < 1 {
		word = "faster"
	}
	return fmt.Sprintf("%s is %s %s than %s", c.Candidate.Title, c.SlowdownText(), word, c.Baseline.Title)
}
