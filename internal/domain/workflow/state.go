package workflow

// State represents a bill's position in the review lifecycle
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateReturned State = "returned"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
	StateReturned: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
