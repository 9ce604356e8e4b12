package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
	"github.com/billbookhq/billbook/internal/domain/event"
	"github.com/billbookhq/billbook/internal/domain/workflow"
)

// CreateBillInput carries a user-submitted bill
type CreateBillInput struct {
	EntryDate   time.Time
	BillDate    time.Time
	PersonName  string
	Amount      decimal.Decimal
	Type        entity.BillType
	Description string
	Category    string
	UserID      string
	IsDraft     bool
	PhotoBase64 string
	IPDevice    string
}

// DirectPaymentInput carries an admin-entered direct payment
type DirectPaymentInput struct {
	EntryDate   time.Time
	BillDate    time.Time
	VendorName  string
	Amount      decimal.Decimal
	Type        entity.BillType
	Description string
	Category    string
	AdminID     string
	AdminName   string
	PhotoBase64 string
	IPDevice    string
}

// UpdateBillInput carries replacement values for a bill's user-editable
// fields
type UpdateBillInput struct {
	EntryDate   time.Time
	BillDate    time.Time
	PersonName  string
	Amount      decimal.Decimal
	Type        entity.BillType
	Description string
	Category    string
	IsDraft     bool
	PhotoBase64 string
	IPDevice    string
}

// TransitionInput carries a requested status transition
type TransitionInput struct {
	Target    entity.Status
	AdminID   string
	AdminName string
	Remarks   string
	IPDevice  string
}

// BillService manages the bill lifecycle: creation, updates,
// status transitions, deletion and queries.
type BillService interface {
	Create(ctx context.Context, in CreateBillInput) (*entity.Bill, error)
	CreateDirectPayment(ctx context.Context, in DirectPaymentInput) (*entity.Bill, error)
	Update(ctx context.Context, id string, in UpdateBillInput) (*entity.Bill, error)
	Transition(ctx context.Context, id string, in TransitionInput) (*entity.Bill, error)
	Delete(ctx context.Context, id, actor, ipDevice string) error
	CheckDuplicate(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) bool

	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	ListAll(ctx context.Context) ([]*entity.Bill, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Bill, error)
	ListReturnedByUser(ctx context.Context, userID string) ([]*entity.Bill, error)
	ListPendingDirectPayments(ctx context.Context, adminID string) ([]*entity.Bill, error)
	ListUserSubmitted(ctx context.Context) ([]*entity.Bill, error)
}

type billServiceImpl struct {
	bills  port.BillRepository
	photos port.PhotoStorage
	policy ApprovalPolicy
	audit  AuditLog
	logger Logger
}

// NewBillService creates a new BillService
func NewBillService(
	bills port.BillRepository,
	photos port.PhotoStorage,
	policy ApprovalPolicy,
	audit AuditLog,
	logger Logger,
) BillService {
	return &billServiceImpl{
		bills:  bills,
		photos: photos,
		policy: policy,
		audit:  audit,
		logger: logger,
	}
}

// Create validates and persists a user-submitted bill
func (s *billServiceImpl) Create(ctx context.Context, in CreateBillInput) (*entity.Bill, error) {
	bill := &entity.Bill{
		EntryDate:   in.EntryDate,
		BillDate:    in.BillDate,
		PersonName:  in.PersonName,
		Amount:      in.Amount,
		Type:        in.Type,
		Description: in.Description,
		Category:    in.Category,
		PaymentType: entity.PaymentReimbursement,
		Status:      entity.StatusPending,
		IsDraft:     in.IsDraft,
		UserID:      in.UserID,
	}

	if err := entity.ValidateSubmission(bill); err != nil {
		return nil, err
	}

	bill.PhotoURL = s.resolvePhoto(ctx, in.PhotoBase64)

	if err := s.bills.Create(ctx, bill); err != nil {
		s.logger.Error("Failed to create bill", "error", err)
		return nil, err
	}

	kind := "Bill"
	if bill.IsDraft {
		kind = "Draft"
	}
	s.audit.Record(ctx, actorOr(in.PersonName, "User"), event.ActionCreate, bill.ID,
		"", "", fmt.Sprintf("%s created: %s", kind, bill.Description), in.IPDevice)

	s.logger.Info("Bill created", "id", bill.ID, "draft", bill.IsDraft)
	return bill, nil
}

// CreateDirectPayment persists an admin-entered direct payment. The
// entry starts pending: a second admin must approve it.
func (s *billServiceImpl) CreateDirectPayment(ctx context.Context, in DirectPaymentInput) (*entity.Bill, error) {
	billType := in.Type
	if billType == "" {
		billType = entity.TypeDebit
	}
	adminName := actorOr(in.AdminName, "Admin")

	bill := &entity.Bill{
		EntryDate:          in.EntryDate,
		BillDate:           in.BillDate,
		PersonName:         in.VendorName,
		VendorName:         in.VendorName,
		Amount:             in.Amount,
		Type:               billType,
		Description:        in.Description,
		Category:           in.Category,
		PaymentType:        entity.PaymentDirect,
		Status:             entity.StatusPending,
		UserID:             in.AdminID,
		CreatedByAdminID:   in.AdminID,
		CreatedByAdminName: adminName,
	}

	if err := entity.ValidateSubmission(bill); err != nil {
		return nil, err
	}

	bill.PhotoURL = s.resolvePhoto(ctx, in.PhotoBase64)

	if err := s.bills.Create(ctx, bill); err != nil {
		s.logger.Error("Failed to create direct payment", "error", err)
		return nil, err
	}

	s.audit.Record(ctx, fmt.Sprintf("%s (Creating Admin)", adminName), event.ActionCreate, bill.ID,
		"", "",
		fmt.Sprintf("Direct payment created by %s for %s (pending approval): %s",
			adminName, actorOr(in.VendorName, "Unknown Vendor"), bill.Description),
		in.IPDevice)

	s.logger.Info("Direct payment created", "id", bill.ID, "admin_id", in.AdminID)
	return bill, nil
}

// Update rewrites a bill's user-editable fields. Updating a returned
// bill is the resubmission path: the bill re-enters review at pending
// and the admin's remarks are cleared. Rejected bills are final.
func (s *billServiceImpl) Update(ctx context.Context, id string, in UpdateBillInput) (*entity.Bill, error) {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if bill.Status == entity.StatusRejected {
		return nil, entity.ErrBillFinalized
	}

	fromStatus := bill.Status
	bill.EntryDate = in.EntryDate
	bill.BillDate = in.BillDate
	bill.PersonName = in.PersonName
	bill.Amount = in.Amount
	bill.Type = in.Type
	bill.Description = in.Description
	bill.Category = in.Category
	bill.IsDraft = in.IsDraft

	if fromStatus == entity.StatusReturned {
		machine, err := workflow.NewBillMachine(workflow.State(fromStatus))
		if err != nil {
			return nil, err
		}
		if err := machine.Fire(workflow.TriggerResubmit); err != nil {
			return nil, err
		}
		bill.Status = entity.Status(machine.State())
		bill.Remarks = ""
	}

	if err := entity.ValidateSubmission(bill); err != nil {
		return nil, err
	}

	if url := s.resolvePhoto(ctx, in.PhotoBase64); url != "" {
		bill.PhotoURL = url
	}

	if err := s.bills.Update(ctx, bill, fromStatus); err != nil {
		s.logger.Error("Failed to update bill", "id", id, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, actorOr(in.PersonName, "User"), event.ActionUpdate, bill.ID,
		fromStatus.String(), bill.Status.String(),
		fmt.Sprintf("Bill updated: %s", bill.Description), in.IPDevice)

	s.logger.Info("Bill updated", "id", bill.ID, "from", fromStatus.String(), "to", bill.Status.String())
	return bill, nil
}

// Transition applies an approve/reject/return decision to a bill.
// Authorization is checked before any mutation; the status write is
// compare-and-set so concurrent decisions cannot both win.
func (s *billServiceImpl) Transition(ctx context.Context, id string, in TransitionInput) (*entity.Bill, error) {
	trigger, err := workflow.TriggerForTarget(workflow.State(in.Target))
	if err != nil {
		return nil, err
	}

	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if bill.IsDraft {
		return nil, &entity.ValidationError{Reason: "draft bills must be finalized before review"}
	}

	if err := s.policy.Authorize(bill, in.Target, in.AdminID); err != nil {
		return nil, err
	}

	machine, err := workflow.NewBillMachine(workflow.State(bill.Status))
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(trigger); err != nil {
		return nil, err
	}

	fromStatus := bill.Status
	adminName := actorOr(in.AdminName, "Admin")

	var patch port.StatusPatch
	if in.Target == entity.StatusApproved {
		now := time.Now().UTC()
		patch.DateOfSettlement = &now
		patch.ApprovedByAdminID = in.AdminID
		patch.ApprovedByAdminName = adminName
	}
	if in.Remarks != "" {
		remarks := in.Remarks
		patch.Remarks = &remarks
	}

	updated, err := s.bills.TransitionStatus(ctx, id, fromStatus, in.Target, patch)
	if err != nil {
		s.logger.Error("Failed to transition bill",
			"id", id, "target", in.Target.String(), "error", err)
		return nil, err
	}

	s.audit.Record(ctx,
		fmt.Sprintf("%s (%s Admin)", adminName, transitionRole(in.Target)),
		actionForTarget(in.Target), id,
		fromStatus.String(), in.Target.String(),
		transitionDetails(bill, in.Target, adminName, in.Remarks),
		in.IPDevice)

	s.logger.Info("Bill transitioned",
		"id", id, "from", fromStatus.String(), "to", in.Target.String(), "admin_id", in.AdminID)
	return updated, nil
}

// Delete hard-removes a bill and records the removal in the audit trail
func (s *billServiceImpl) Delete(ctx context.Context, id, actor, ipDevice string) error {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.bills.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete bill", "id", id, "error", err)
		return err
	}

	s.audit.Record(ctx, actorOr(actor, "Admin"), event.ActionDelete, id,
		bill.Status.String(), "",
		fmt.Sprintf("Bill deleted: %s", bill.Description), ipDevice)

	s.logger.Info("Bill deleted", "id", id)
	return nil
}

// CheckDuplicate reports whether a likely-duplicate bill already
// exists. The check is advisory: a detector failure is treated as
// "no duplicate found" rather than blocking creation.
func (s *billServiceImpl) CheckDuplicate(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) bool {
	found, err := s.bills.FindDuplicate(ctx, billDate, amount, description, personName)
	if err != nil {
		s.logger.Error("Duplicate check failed, treating as no duplicate", "error", err)
		return false
	}
	return found
}

// GetByID retrieves a bill by its identifier
func (s *billServiceImpl) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	return s.bills.GetByID(ctx, id)
}

// ListAll returns every bill, newest first
func (s *billServiceImpl) ListAll(ctx context.Context) ([]*entity.Bill, error) {
	return s.bills.List(ctx, port.BillFilter{}, port.SortCreatedDesc)
}

// ListByUser returns a user's bills, excluding returned ones which are
// surfaced through ListReturnedByUser instead
func (s *billServiceImpl) ListByUser(ctx context.Context, userID string) ([]*entity.Bill, error) {
	return s.bills.List(ctx, port.BillFilter{
		UserID:        userID,
		ExcludeStatus: entity.StatusReturned,
	}, port.SortCreatedDesc)
}

// ListReturnedByUser returns the user's returned bills needing attention
func (s *billServiceImpl) ListReturnedByUser(ctx context.Context, userID string) ([]*entity.Bill, error) {
	return s.bills.List(ctx, port.BillFilter{
		UserID: userID,
		Status: entity.StatusReturned,
	}, port.SortUpdatedDesc)
}

// ListPendingDirectPayments returns pending direct payments awaiting a
// second admin, excluding those the requesting admin created
func (s *billServiceImpl) ListPendingDirectPayments(ctx context.Context, adminID string) ([]*entity.Bill, error) {
	return s.bills.List(ctx, port.BillFilter{
		Status:                  entity.StatusPending,
		PaymentType:             entity.PaymentDirect,
		ExcludeCreatedByAdminID: adminID,
	}, port.SortCreatedDesc)
}

// ListUserSubmitted returns reimbursement bills only, excluding admin
// direct payments
func (s *billServiceImpl) ListUserSubmitted(ctx context.Context) ([]*entity.Bill, error) {
	return s.bills.List(ctx, port.BillFilter{
		ExcludePaymentType: entity.PaymentDirect,
	}, port.SortCreatedDesc)
}

// resolvePhoto stores an inline base64 photo and returns its URL. Any
// failure degrades to no photo rather than failing the bill operation.
func (s *billServiceImpl) resolvePhoto(ctx context.Context, photoBase64 string) string {
	if photoBase64 == "" {
		return ""
	}

	content, contentType, err := decodePhotoPayload(photoBase64)
	if err != nil {
		s.logger.Error("Failed to decode photo payload, continuing without photo", "error", err)
		return ""
	}

	url, err := s.photos.Store(ctx, content, contentType)
	if err != nil {
		s.logger.Error("Failed to store photo, continuing without photo", "error", err)
		return ""
	}

	return url
}

// decodePhotoPayload accepts either a raw base64 string or a data URI
// ("data:image/png;base64,....")
func decodePhotoPayload(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"

	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		meta := payload[len("data:"):idx]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			meta = meta[:semi]
		}
		if meta != "" {
			contentType = meta
		}
		payload = payload[idx+1:]
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 photo payload: %w", err)
	}

	return content, contentType, nil
}

func actorOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func actionForTarget(target entity.Status) event.Action {
	switch target {
	case entity.StatusApproved:
		return event.ActionApprove
	case entity.StatusRejected:
		return event.ActionDecline
	default:
		return event.ActionReturn
	}
}

func transitionRole(target entity.Status) string {
	switch target {
	case entity.StatusApproved:
		return "Approving"
	case entity.StatusRejected:
		return "Rejecting"
	default:
		return "Returning"
	}
}

// transitionDetails composes the audit detail line, distinguishing
// direct-payment dual-admin attribution from ordinary reimbursements
func transitionDetails(bill *entity.Bill, target entity.Status, adminName, remarks string) string {
	if bill.PaymentType == entity.PaymentDirect {
		details := fmt.Sprintf("Direct payment %s by %s (originally created by %s): %s",
			target.String(), adminName,
			actorOr(bill.CreatedByAdminName, "Unknown Admin"), bill.Description)
		if remarks != "" {
			details += " - " + remarks
		}
		return details
	}
	if remarks != "" {
		return remarks
	}
	return fmt.Sprintf("Bill %s", target.String())
}
