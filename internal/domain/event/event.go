package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable audit entry describing one state-changing action.
// Events are created once and never updated or deleted.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	EntityID  string    `json:"entityId,omitempty"`
	OldValue  string    `json:"oldValue,omitempty"`
	NewValue  string    `json:"newValue,omitempty"`
	Details   string    `json:"details,omitempty"`
	IPDevice  string    `json:"ipDevice,omitempty"`
}

// New creates a new audit event with a generated ID and the current time.
func New(actor string, action Action, entityID, oldValue, newValue, details, ipDevice string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Actor:     actor,
		Action:    action,
		EntityID:  entityID,
		OldValue:  oldValue,
		NewValue:  newValue,
		Details:   details,
		IPDevice:  ipDevice,
	}
}
