package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
	TriggerReturn   Trigger = "RETURN"
	TriggerResubmit Trigger = "RESUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
