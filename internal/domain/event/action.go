package event

// Action identifies the kind of state-changing action an event records
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
	ActionReturn  Action = "return"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
	ActionEmail   Action = "email"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is one of the defined constants
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate,
		ActionUpdate,
		ActionApprove,
		ActionDecline,
		ActionReturn,
		ActionDelete,
		ActionExport,
		ActionEmail:
		return true
	default:
		return false
	}
}
