package service

import (
	"errors"

	"github.com/billbookhq/billbook/internal/domain/entity"
)

// ErrSelfApproval is returned when a direct payment's creator attempts
// to approve their own entry
var ErrSelfApproval = errors.New("direct payments cannot be approved by the same admin who created them")

// ApprovalPolicy decides whether a requested status transition is
// authorized for the acting admin. Denial is deterministic and
// side-effect free; it is evaluated before any mutation.
type ApprovalPolicy interface {
	Authorize(bill *entity.Bill, target entity.Status, actingAdminID string) error
}

// dualControlPolicy enforces segregation of duties on direct payments:
// the admin who entered a direct payment cannot also approve it. Every
// other transition is allowed unconditionally; role checks beyond this
// belong to the caller.
type dualControlPolicy struct{}

// NewApprovalPolicy creates the default approval policy
func NewApprovalPolicy() ApprovalPolicy {
	return dualControlPolicy{}
}

func (dualControlPolicy) Authorize(bill *entity.Bill, target entity.Status, actingAdminID string) error {
	if bill.PaymentType == entity.PaymentDirect &&
		target == entity.StatusApproved &&
		bill.CreatedByAdminID != "" &&
		bill.CreatedByAdminID == actingAdminID {
		return ErrSelfApproval
	}
	return nil
}
