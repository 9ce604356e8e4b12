// Package email holds the notification stub. Delivery is not wired to
// a provider yet; sends are logged and recorded in the audit trail so
// the caller-facing contract is already stable.
package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/application/service"
	"github.com/billbookhq/billbook/internal/domain/entity"
	"github.com/billbookhq/billbook/internal/domain/event"
)

// Sender records email notifications
type Sender struct {
	audit  service.AuditLog
	logger *zap.Logger
}

// NewSender creates a new email sender
func NewSender(audit service.AuditLog, logger *zap.Logger) *Sender {
	return &Sender{
		audit:  audit,
		logger: logger,
	}
}

// Send validates and logs a notification, recording an email event.
// TODO: wire an SMTP or provider client once one is chosen; until then
// this is a stub that only audits the send.
func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	if to == "" || subject == "" || html == "" {
		return &entity.ValidationError{Reason: "missing required fields: to, subject, html"}
	}

	s.logger.Info("Email notification logged",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(html)))

	s.audit.Record(ctx, "System", event.ActionEmail, "",
		"", to, fmt.Sprintf("Email sent: %s", subject), "")

	return nil
}
