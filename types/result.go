package types

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Result is the outcome of sampling one endpoint.
type Result struct {
	// Title is the display name of the endpoint, like
	// "Semantic (RAG)". It should be unique within a run.
	Title string `json:"title,omitempty"`

	// Label is the short tag shown in the section header.
	Label string `json:"label,omitempty"`

	// Endpoint is the URL that was sampled.
	Endpoint string `json:"endpoint,omitempty"`

	// Timestamp is when sampling started; UTC UnixNano format.
	Timestamp int64 `json:"timestamp,omitempty"`

	// Times is every sample, in the order the requests were made.
	Times Samples `json:"times,omitempty"`

	// ThresholdRTT is the maximum mean RTT that was tolerated before
	// considering the endpoint degraded. Leave 0 if irrelevant.
	ThresholdRTT time.Duration `json:"threshold,omitempty"`

	// Healthy, Degraded, and Down contain the ultimate conclusion
	// about the endpoint. Exactly one of these should be true
	// once the result has been concluded.
	Healthy  bool `json:"healthy,omitempty"`
	Degraded bool `json:"degraded,omitempty"`
	Down     bool `json:"down,omitempty"`

	// Notice describes a condition that affected the conclusion,
	// for example that the mean RTT is above the threshold.
	Notice string `json:"notice,omitempty"`
}

func NewResult() Result {
	return Result{
		Timestamp: Timestamp(),
	}
}

// ComputeStats computes basic statistics about the successful
// samples of r.
func (r Result) ComputeStats() (Stats, error) {
	return ComputeStats(r.Times)
}

// Conclude sets exactly one of Healthy, Degraded or Down on r
// from its samples and threshold.
func (r Result) Conclude() Result {
	r.Healthy, r.Degraded, r.Down = false, false, false

	stats, err := r.ComputeStats()
	if err != nil {
		r.Down = true
		r.Notice = "every request failed"
		return r
	}
	if stats.Failed > 0 {
		r.Degraded = true
		r.Notice = fmt.Sprintf("%d of %d requests failed", stats.Failed, len(r.Times))
		return r
	}
	if r.ThresholdRTT > 0 && stats.Mean > r.ThresholdRTT {
		r.Degraded = true
		r.Notice = fmt.Sprintf("mean round trip time exceeded threshold (%s)", r.ThresholdRTT)
		return r
	}

	r.Healthy = true
	return r
}

// DisableColor disables ANSI colors in the Result default string.
func DisableColor() {
	color.NoColor = true
}

// String returns a human-readable rendering of r.
func (r Result) String() string {
	s := fmt.Sprintf("== %s - %s\n", r.Title, r.Endpoint)
	if stats, err := r.ComputeStats(); err == nil {
		s += fmt.Sprintf("       Mean: %s\n", FormatSeconds(stats.Mean))
		s += fmt.Sprintf("        Min: %s\n", FormatSeconds(stats.Min))
		s += fmt.Sprintf("        Max: %s\n", FormatSeconds(stats.Max))
		s += fmt.Sprintf("     Failed: %d/%d\n", stats.Failed, len(r.Times))
	} else {
		s += fmt.Sprintf("      Stats: %v\n", err)
	}
	statusLine := fmt.Sprintf(" Assessment: %v\n", r.Status())
	switch r.Status() {
	case StatusHealthy:
		statusLine = color.GreenString(statusLine)
	case StatusDegraded:
		statusLine = color.YellowString(statusLine)
	case StatusDown:
		statusLine = color.RedString(statusLine)
	}
	s += statusLine
	return s
}

// Status returns a text representation of the overall status
// indicated in r.
func (r Result) Status() StatusText {
	switch {
	case r.Down:
		return StatusDown
	case r.Degraded:
		return StatusDegraded
	case r.Healthy:
		return StatusHealthy
	}
	return StatusUnknown
}
