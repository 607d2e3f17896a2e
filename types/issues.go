package types

import "fmt"

// Issues returns the results that are not healthy, in order.
func Issues(results []Result) []Result {
	var issues []Result
	for _, result := range results {
		if !result.Healthy {
			issues = append(issues, result)
		}
	}
	return issues
}

// Summary describes r on one line for notifications, like
// "Gemini (LLM) - Status degraded, mean 2.318s (1 of 5 requests failed)".
func (r Result) Summary() string {
	s := fmt.Sprintf("%s - Status %s", r.Title, r.Status())
	if stats, err := r.ComputeStats(); err == nil {
		s += ", mean " + FormatSeconds(stats.Mean)
	}
	if r.Notice != "" {
		s += " (" + r.Notice + ")"
	}
	return s
}
