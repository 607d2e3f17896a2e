package types

import (
	"math"
	"time"
)

// Sample is the outcome of a single request to an endpoint.
// A Sample with a non-empty Error is a failure marker and
// carries no timing measurement.
type Sample struct {
	RTT   time.Duration `json:"rtt"`
	Error string        `json:"error,omitempty"`
}

// Failed returns whether s did not produce a measurement.
func (s Sample) Failed() bool {
	return s.Error != ""
}

// Samples is a list of Sample in the order the requests
// were made. It can be sorted by RTT.
type Samples []Sample

func (a Samples) Len() int           { return len(a) }
func (a Samples) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a Samples) Less(i, j int) bool { return a[i].RTT < a[j].RTT }

// Succeeded returns the samples in a that are not failure
// markers, preserving their order.
func (a Samples) Succeeded() Samples {
	ok := make(Samples, 0, len(a))
	for _, s := range a {
		if !s.Failed() {
			ok = append(ok, s)
		}
	}
	return ok
}

// Failures returns how many samples in a are failure markers.
func (a Samples) Failures() int {
	var n int
	for _, s := range a {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Seconds returns each RTT in seconds; failure markers
// become NaN.
func (a Samples) Seconds() []float64 {
	secs := make([]float64, len(a))
	for i, s := range a {
		if s.Failed() {
			secs[i] = math.NaN()
			continue
		}
		secs[i] = s.RTT.Seconds()
	}
	return secs
}
