package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func resultWith(title string, rtts ...time.Duration) Result {
	r := Result{Title: title}
	for _, rtt := range rtts {
		r.Times = append(r.Times, Sample{RTT: rtt})
	}
	return r
}

func TestCompare(t *testing.T) {
	rag := resultWith("Semantic (RAG)", 400*time.Millisecond, 600*time.Millisecond)
	llm := resultWith("Gemini (LLM)", 1500*time.Millisecond, 2500*time.Millisecond)

	c, err := Compare(rag, llm)
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := c.Slowdown, 4.0; got != want {
		t.Errorf("Expected Slowdown=%v, got %v", want, got)
	}
	if got, want := c.SlowdownText(), "4.0x"; got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}
	if got, want := c.Verdict(), "Gemini (LLM) is 4.0x slower than Semantic (RAG)"; got != want {
		t.Errorf("Expected verdict '%s', got '%s'", want, got)
	}
	if got, want := c.BaselineStats.Mean, 500*time.Millisecond; got != want {
		t.Errorf("Expected baseline mean %v, got %v", want, got)
	}
}

func TestCompareFaster(t *testing.T) {
	c, err := Compare(resultWith("A", 2*time.Second), resultWith("B", time.Second))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := c.Verdict(), "B is 0.5x faster than A"; got != want {
		t.Errorf("Expected verdict '%s', got '%s'", want, got)
	}
}

func TestCompareNoSamples(t *testing.T) {
	down := Result{Title: "Gemini (LLM)", Times: Samples{{Error: "timeout"}, {Error: "timeout"}}}
	up := resultWith("Semantic (RAG)", time.Second)

	_, err := Compare(up, down)
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("Expected ErrNoSamples, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Gemini (LLM): ") {
		t.Errorf("Expected error to name the endpoint, got '%s'", err)
	}

	_, err = Compare(down, up)
	if !errors.Is(err, ErrNoSamples) {
		t.Errorf("Expected ErrNoSamples for a failed baseline, got %v", err)
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	_, err := Compare(resultWith("A", 0), resultWith("B", time.Second))
	if !errors.Is(err, ErrZeroBaseline) {
		t.Errorf("Expected ErrZeroBaseline, got %v", err)
	}
}
