package types

// StatusText is the textual representation of the
// conclusion about a sampled endpoint.
type StatusText string

// PriorityOver returns whether s has priority over other.
// For example, a Down status has priority over Degraded.
func (s StatusText) PriorityOver(other StatusText) bool {
	if s == other {
		return false
	}
	switch s {
	case StatusDown:
		return true
	case StatusDegraded:
		return other != StatusDown
	case StatusHealthy:
		return other == StatusUnknown
	}
	return false
}

// Text representations for the status of an endpoint.
const (
	StatusHealthy  StatusText = "healthy"
	StatusDegraded StatusText = "degraded"
	StatusDown     StatusText = "down"
	StatusUnknown  StatusText = "unknown"
)

// WorstStatus returns the status with the highest priority
// among results, or StatusUnknown for none.
func WorstStatus(results []Result) StatusText {
	worst := StatusUnknown
	for _, r := range results {
		if st := r.Status(); st.PriorityOver(worst) {
			worst = st
		}
	}
	return worst
}
