package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	errs := []error{
		errors.New("Err 1"),
		nil,
		errors.New("Err 2"),
	}
	errsT := Errors(errs)

	want := "Err 1; Err 2"
	if got := errsT.Error(); want != got {
		t.Errorf("Errors, wanted '%s', got '%s'", want, got)
	}
	if errsT.Empty() {
		t.Error("Expected Errors with non-nil entries not to be empty")
	}
	if errsT.Err() == nil {
		t.Error("Expected Err() to return an error")
	}
}

func TestErrorsEmpty(t *testing.T) {
	errsT := Errors{nil, nil}
	if !errsT.Empty() {
		t.Error("Expected Errors with only nil entries to be empty")
	}
	if err := errsT.Err(); err != nil {
		t.Errorf("Expected Err() to be nil, got %v", err)
	}
}

func TestErrorsIs(t *testing.T) {
	err := Errors{nil, fmt.Errorf("Gemini (LLM): %w", ErrNoSamples)}.Err()
	if !errors.Is(err, ErrNoSamples) {
		t.Errorf("Expected errors.Is to find ErrNoSamples in %v", err)
	}
	if errors.Is(err, ErrZeroBaseline) {
		t.Errorf("Didn't expect ErrZeroBaseline in %v", err)
	}
}
