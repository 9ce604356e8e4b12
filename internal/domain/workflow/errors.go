package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTarget is returned when a requested target status is not
	// one of the transition targets the lifecycle recognizes
	ErrInvalidTarget = errors.New("invalid target status")
)
