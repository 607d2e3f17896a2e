package types

import (
	"sort"
	"time"
)

// Stats is a type that holds information about a Result,
// computed over its successful Samples only.
type Stats struct {
	Count  int           `json:"count"`
	Failed int           `json:"failed,omitempty"`
	Total  time.Duration `json:"total,omitempty"`
	Mean   time.Duration `json:"mean,omitempty"`
	Median time.Duration `json:"median,omitempty"`
	Min    time.Duration `json:"min,omitempty"`
	Max    time.Duration `json:"max,omitempty"`
}

// ComputeStats computes basic statistics over the successful
// samples in times. It returns ErrNoSamples if there are none.
func ComputeStats(times Samples) (Stats, error) {
	ok := times.Succeeded()
	s := Stats{Count: len(ok), Failed: len(times) - len(ok)}
	if len(ok) == 0 {
		return s, ErrNoSamples
	}

	s.Min, s.Max = ok[0].RTT, ok[0].RTT
	for _, a := range ok {
		s.Total += a.RTT
		if a.RTT < s.Min {
			s.Min = a.RTT
		}
		if a.RTT > s.Max {
			s.Max = a.RTT
		}
	}

	sort.Sort(ok)
	half := len(ok) / 2
	if len(ok)%2 == 0 {
		s.Median = (ok[half-1].RTT + ok[half].RTT) / 2
	} else {
		s.Median = ok[half].RTT
	}

	s.Mean = time.Duration(int64(s.Total) / int64(len(ok)))

	return s, nil
}
