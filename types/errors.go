package types

import (
	"errors"
	"strings"
)

var (
	// ErrNoSamples is returned when statistics are requested
	// for a run in which every request failed.
	ErrNoSamples = errors.New("no successful samples")

	// ErrZeroBaseline is returned when a slowdown ratio would
	// divide by a zero baseline mean.
	ErrZeroBaseline = errors.New("baseline mean is zero")
)

// Errors is an error type that concatenates multiple errors.
type Errors []error

// Error returns a string containing all the errors in e.
func (e Errors) Error() string {
	var errs []string
	for _, err := range e {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return strings.Join(errs, "; ")
}

// Empty returns whether e has any non-nil errors in it.
func (e Errors) Empty() bool {
	for _, err := range e {
		if err != nil {
			return false
		}
	}
	return true
}

// Is reports whether any error in e matches target, so
// errors.Is sees through the aggregate.
func (e Errors) Is(target error) bool {
	for _, err := range e {
		if err != nil && errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Err returns e as an error, or nil if e is Empty.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}
