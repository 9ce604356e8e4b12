package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a bill identifier is unknown
	ErrNotFound = errors.New("bill not found")

	// ErrConflict is returned when a concurrent status transition
	// already changed the bill this operation expected to change
	ErrConflict = errors.New("bill was modified concurrently")

	// ErrBillFinalized is returned when an update targets a rejected
	// bill; rejected is a terminal state and cannot re-enter review
	ErrBillFinalized = errors.New("rejected bills cannot be updated")
)

// ValidationError reports required-field violations on a bill submission
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
