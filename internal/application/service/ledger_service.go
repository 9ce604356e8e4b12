package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
)

// LedgerRow is one line of the running-balance ledger view
type LedgerRow struct {
	BillID           string             `json:"billId"`
	EntryDate        time.Time          `json:"entryDate"`
	BillDate         time.Time          `json:"billDate"`
	DateOfSettlement *time.Time         `json:"dateOfSettlement,omitempty"`
	Description      string             `json:"description"`
	PersonName       string             `json:"personName"`
	RaisedBy         string             `json:"raisedBy"`
	ApprovedBy       string             `json:"approvedBy"`
	Amount           decimal.Decimal    `json:"amount"`
	Type             entity.BillType    `json:"type"`
	Balance          decimal.Decimal    `json:"balance"`
	Category         string             `json:"category"`
	Remarks          string             `json:"remarks,omitempty"`
	BillSoftcopyURL  string             `json:"billSoftcopyUrl,omitempty"`
	PaymentType      entity.PaymentType `json:"paymentType"`
}

// LedgerService derives the chronological running-balance view from
// approved bills. It owns no data and performs no writes: the
// projection is recomputed from the bill store on each read.
type LedgerService interface {
	Build(ctx context.Context) ([]LedgerRow, error)
}

type ledgerServiceImpl struct {
	bills  port.BillRepository
	logger Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(bills port.BillRepository, logger Logger) LedgerService {
	return &ledgerServiceImpl{
		bills:  bills,
		logger: logger,
	}
}

// Build folds the approved bills, entry date ascending, into ledger rows
func (s *ledgerServiceImpl) Build(ctx context.Context) ([]LedgerRow, error) {
	bills, err := s.bills.List(ctx, port.BillFilter{
		Status: entity.StatusApproved,
	}, port.SortEntryDateAsc)
	if err != nil {
		s.logger.Error("Failed to load approved bills for ledger", "error", err)
		return nil, err
	}

	return BuildLedgerRows(bills), nil
}

// BuildLedgerRows is the pure fold behind the ledger projection:
// starting from a zero balance, credits add and debits subtract, and
// each row carries the balance after its own bill. Running it twice
// over the same bills yields identical rows.
func BuildLedgerRows(bills []*entity.Bill) []LedgerRow {
	balance := decimal.Zero
	rows := make([]LedgerRow, 0, len(bills))

	for _, bill := range bills {
		if bill.Type == entity.TypeCredit {
			balance = balance.Add(bill.Amount)
		} else {
			balance = balance.Sub(bill.Amount)
		}

		rows = append(rows, LedgerRow{
			BillID:           bill.ID,
			EntryDate:        bill.EntryDate,
			BillDate:         bill.BillDate,
			DateOfSettlement: bill.DateOfSettlement,
			Description:      bill.Description,
			PersonName:       bill.CounterpartyName(),
			RaisedBy:         bill.RaisedBy(),
			ApprovedBy:       actorOr(bill.ApprovedByAdminName, "Admin"),
			Amount:           bill.Amount,
			Type:             bill.Type,
			Balance:          balance,
			Category:         bill.Category,
			Remarks:          bill.Remarks,
			BillSoftcopyURL:  bill.PhotoURL,
			PaymentType:      bill.PaymentType,
		})
	}

	return rows
}
