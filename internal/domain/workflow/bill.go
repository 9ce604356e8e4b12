package workflow

import "fmt"

// NewBillMachine builds the bill lifecycle machine positioned at the
// given current state:
//
//	pending  -> approved | rejected | returned
//	returned -> pending  (resubmission)
//
// approved and rejected are terminal. Drafts live outside these states
// entirely and enter at pending once finalized.
func NewBillMachine(current State) (StateMachine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, current)
	}

	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerReturn, StateReturned)
	b.Configure(StateReturned).
		Permit(TriggerResubmit, StatePending)

	return b.Build(current), nil
}

// TriggerForTarget maps a requested target status to the trigger that
// reaches it. Only approved, rejected and returned are reachable through
// an explicit status transition request.
func TriggerForTarget(target State) (Trigger, error) {
	switch target {
	case StateApproved:
		return TriggerApprove, nil
	case StateRejected:
		return TriggerReject, nil
	case StateReturned:
		return TriggerReturn, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
}
