package service

import (
	"context"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AuditLog records state-changing actions in the append-only audit
// trail. A storage failure on the audit path is logged and swallowed:
// it must never roll back or block the business operation that already
// succeeded.
type AuditLog interface {
	Record(ctx context.Context, actor string, action event.Action, entityID, oldValue, newValue, details, ipDevice string) *event.Event

	// List returns the recorded events, newest first
	List(ctx context.Context) ([]*event.Event, error)
}

type auditLogImpl struct {
	events port.EventRepository
	logger Logger
}

// NewAuditLog creates the audit log backed by the event repository
func NewAuditLog(events port.EventRepository, logger Logger) AuditLog {
	return &auditLogImpl{
		events: events,
		logger: logger,
	}
}

// Record appends one audit event. The returned event is always
// populated, even when the underlying append failed.
func (a *auditLogImpl) Record(ctx context.Context, actor string, action event.Action, entityID, oldValue, newValue, details, ipDevice string) *event.Event {
	ev := event.New(actor, action, entityID, oldValue, newValue, details, ipDevice)

	if err := a.events.Append(ctx, ev); err != nil {
		a.logger.Error("Failed to record audit event",
			"action", action.String(),
			"entity_id", entityID,
			"error", err)
	}

	return ev
}

// List returns the audit trail, newest first
func (a *auditLogImpl) List(ctx context.Context) ([]*event.Event, error) {
	return a.events.List(ctx)
}
