package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the two driver-level failure modes the harness
// distinguishes. Wrap them with %w so callers can test with errors.Is.
var (
	// ErrSessionNotFound means the named session does not exist at
	// the control interface.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDriverTimeout means the control interface call itself hung
	// past its timeout. This is distinct from a verification timeout,
	// which is a negative result, not an error.
	ErrDriverTimeout = errors.New("driver command timed out")
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
