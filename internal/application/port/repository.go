package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billbookhq/billbook/internal/domain/entity"
	"github.com/billbookhq/billbook/internal/domain/event"
)

// Sort orders bill query results
type Sort string

const (
	SortCreatedDesc  Sort = "created_desc"
	SortCreatedAsc   Sort = "created_asc"
	SortUpdatedDesc  Sort = "updated_desc"
	SortEntryDateAsc Sort = "entry_date_asc"
)

// BillFilter narrows a bill query. Zero-valued fields are ignored.
type BillFilter struct {
	UserID                  string
	Status                  entity.Status
	ExcludeStatus           entity.Status
	PaymentType             entity.PaymentType
	ExcludePaymentType      entity.PaymentType
	ExcludeCreatedByAdminID string
}

// StatusPatch carries the settlement metadata written alongside a
// status transition.
type StatusPatch struct {
	DateOfSettlement    *time.Time
	ApprovedByAdminID   string
	ApprovedByAdminName string
	Remarks             *string
}

// BillRepository defines persistence operations for Bill.
// The store is the single writer per bill identifier; status-changing
// writes are compare-and-set on the previous status so concurrent
// transitions cannot both succeed.
type BillRepository interface {
	// Create persists a new bill
	Create(ctx context.Context, bill *entity.Bill) error

	// GetByID retrieves a bill; returns entity.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (*entity.Bill, error)

	// Update rewrites the bill's user-editable fields. The write only
	// applies while the stored status still equals fromStatus; a
	// concurrent transition surfaces as entity.ErrConflict.
	Update(ctx context.Context, bill *entity.Bill, fromStatus entity.Status) error

	// TransitionStatus atomically moves a bill from one status to
	// another, applying the patch in the same write. Returns
	// entity.ErrConflict when the stored status no longer matches from,
	// entity.ErrNotFound when the bill is gone.
	TransitionStatus(ctx context.Context, id string, from, to entity.Status, patch StatusPatch) (*entity.Bill, error)

	// Delete hard-removes a bill; returns entity.ErrNotFound when absent
	Delete(ctx context.Context, id string) error

	// List returns bills matching the filter in the given order
	List(ctx context.Context, filter BillFilter, sort Sort) ([]*entity.Bill, error)

	// FindDuplicate reports whether a non-deleted bill matches the
	// given date and amount exactly and contains both text fragments
	// case-insensitively.
	FindDuplicate(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error)
}

// EventRepository defines persistence for the append-only audit log.
// Events are never updated or deleted.
type EventRepository interface {
	// Append writes one event; atomic with respect to the log
	Append(ctx context.Context, ev *event.Event) error

	// List returns events newest first
	List(ctx context.Context) ([]*event.Event, error)
}
