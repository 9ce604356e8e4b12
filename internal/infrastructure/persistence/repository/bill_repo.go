package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
)

const billColumns = `id, entry_date, bill_date, date_of_settlement, person_name, vendor_name,
	amount, type, description, category, payment_type, status, is_draft, user_id,
	created_by_admin_id, created_by_admin_name, approved_by_admin_id, approved_by_admin_name,
	remarks, photo_url, created_at, updated_at`

// BillRepository implements port.BillRepository on SQLite
type BillRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *sql.DB, logger *zap.Logger) port.BillRepository {
	return &BillRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new bill, assigning its identifier and timestamps
func (r *BillRepository) Create(ctx context.Context, bill *entity.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	bill.CreatedAt = now
	bill.UpdatedAt = now
	if bill.EntryDate.IsZero() {
		bill.EntryDate = now
	}

	query := `
		INSERT INTO bills (` + billColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		bill.ID,
		bill.EntryDate,
		nullableTime(bill.BillDate),
		bill.DateOfSettlement,
		bill.PersonName,
		bill.VendorName,
		bill.Amount.String(),
		string(bill.Type),
		bill.Description,
		bill.Category,
		string(bill.PaymentType),
		string(bill.Status),
		bill.IsDraft,
		bill.UserID,
		bill.CreatedByAdminID,
		bill.CreatedByAdminName,
		bill.ApprovedByAdminID,
		bill.ApprovedByAdminName,
		bill.Remarks,
		bill.PhotoURL,
		bill.CreatedAt,
		bill.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bill", zap.Error(err))
		return fmt.Errorf("failed to create bill: %w", err)
	}

	return nil
}

// GetByID retrieves a bill by its identifier
func (r *BillRepository) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = ?`

	bill, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get bill", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	return bill, nil
}

// Update rewrites the user-editable fields of a bill. The write is
// compare-and-set on the status the caller read, so a status change
// racing with this update surfaces as entity.ErrConflict.
func (r *BillRepository) Update(ctx context.Context, bill *entity.Bill, fromStatus entity.Status) error {
	bill.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bills SET
			entry_date = ?, bill_date = ?, person_name = ?, vendor_name = ?,
			amount = ?, type = ?, description = ?, category = ?, is_draft = ?,
			status = ?, remarks = ?, photo_url = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		bill.EntryDate,
		nullableTime(bill.BillDate),
		bill.PersonName,
		bill.VendorName,
		bill.Amount.String(),
		string(bill.Type),
		bill.Description,
		bill.Category,
		bill.IsDraft,
		string(bill.Status),
		bill.Remarks,
		bill.PhotoURL,
		bill.UpdatedAt,
		bill.ID,
		string(fromStatus),
	)
	if err != nil {
		r.logger.Error("Failed to update bill", zap.String("id", bill.ID), zap.Error(err))
		return fmt.Errorf("failed to update bill: %w", err)
	}

	return r.checkWriteApplied(ctx, result, bill.ID)
}

// TransitionStatus atomically moves a bill between statuses, applying
// the settlement patch in the same write. At most one concurrent
// transition can win; the loser observes entity.ErrConflict.
func (r *BillRepository) TransitionStatus(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
	set := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(to), time.Now().UTC()}

	if patch.DateOfSettlement != nil {
		set = append(set, "date_of_settlement = ?")
		args = append(args, *patch.DateOfSettlement)
	}
	if patch.ApprovedByAdminID != "" {
		set = append(set, "approved_by_admin_id = ?", "approved_by_admin_name = ?")
		args = append(args, patch.ApprovedByAdminID, patch.ApprovedByAdminName)
	}
	if patch.Remarks != nil {
		set = append(set, "remarks = ?")
		args = append(args, *patch.Remarks)
	}

	query := fmt.Sprintf("UPDATE bills SET %s WHERE id = ? AND status = ?", strings.Join(set, ", "))
	args = append(args, id, string(from))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to transition bill status",
			zap.String("id", id),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to transition bill status: %w", err)
	}

	if err := r.checkWriteApplied(ctx, result, id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// checkWriteApplied distinguishes a lost compare-and-set race from a
// missing bill when a guarded write touched no rows.
func (r *BillRepository) checkWriteApplied(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM bills WHERE id = ?)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check bill existence: %w", err)
	}
	if exists {
		return entity.ErrConflict
	}
	return entity.ErrNotFound
}

// Delete hard-removes a bill
func (r *BillRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete bill", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// List returns bills matching the filter in the requested order
func (r *BillRepository) List(ctx context.Context, filter port.BillFilter, sort port.Sort) ([]*entity.Bill, error) {
	var where []string
	var args []interface{}

	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ExcludeStatus != "" {
		where = append(where, "status != ?")
		args = append(args, string(filter.ExcludeStatus))
	}
	if filter.PaymentType != "" {
		where = append(where, "payment_type = ?")
		args = append(args, string(filter.PaymentType))
	}
	if filter.ExcludePaymentType != "" {
		where = append(where, "payment_type != ?")
		args = append(args, string(filter.ExcludePaymentType))
	}
	if filter.ExcludeCreatedByAdminID != "" {
		where = append(where, "created_by_admin_id != ?")
		args = append(args, filter.ExcludeCreatedByAdminID)
	}

	query := `SELECT ` + billColumns + ` FROM bills`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(sort)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list bills", zap.Error(err))
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*entity.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}

	return bills, rows.Err()
}

// FindDuplicate reports whether an existing bill matches the given date
// and amount exactly and contains both text fragments case-insensitively.
func (r *BillRepository) FindDuplicate(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bills
			WHERE date(bill_date) = date(?)
			  AND amount = ?
			  AND instr(lower(description), lower(?)) > 0
			  AND instr(lower(person_name), lower(?)) > 0
		)
	`

	var found bool
	err := r.db.QueryRowContext(ctx, query, billDate, amount.String(), description, personName).Scan(&found)
	if err != nil {
		r.logger.Error("Failed to check for duplicate bill", zap.Error(err))
		return false, fmt.Errorf("failed to check for duplicate bill: %w", err)
	}

	return found, nil
}

func orderClause(sort port.Sort) string {
	switch sort {
	case port.SortCreatedAsc:
		return "created_at ASC, id ASC"
	case port.SortUpdatedDesc:
		return "updated_at DESC"
	case port.SortEntryDateAsc:
		// Creation order breaks entry-date ties so the ledger fold is
		// deterministic.
		return "entry_date ASC, created_at ASC, id ASC"
	default:
		return "created_at DESC"
	}
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(s scanner) (*entity.Bill, error) {
	var bill entity.Bill
	var billDate, settlement sql.NullTime
	var amount string

	err := s.Scan(
		&bill.ID,
		&bill.EntryDate,
		&billDate,
		&settlement,
		&bill.PersonName,
		&bill.VendorName,
		&amount,
		&bill.Type,
		&bill.Description,
		&bill.Category,
		&bill.PaymentType,
		&bill.Status,
		&bill.IsDraft,
		&bill.UserID,
		&bill.CreatedByAdminID,
		&bill.CreatedByAdminName,
		&bill.ApprovedByAdminID,
		&bill.ApprovedByAdminName,
		&bill.Remarks,
		&bill.PhotoURL,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if billDate.Valid {
		bill.BillDate = billDate.Time
	}
	if settlement.Valid {
		bill.DateOfSettlement = &settlement.Time
	}

	bill.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}

	return &bill, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// Verify interface compliance
var _ port.BillRepository = (*BillRepository)(nil)
