package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/billbookhq/billbook/internal/domain/event"
)

// LedgerExporter renders the ledger projection as an Excel workbook
// for the accountant, recording an export event in the audit trail.
type LedgerExporter interface {
	ExportXLSX(ctx context.Context, actor, ipDevice string) ([]byte, error)
}

type ledgerExporterImpl struct {
	ledger LedgerService
	audit  AuditLog
	logger Logger
}

// NewLedgerExporter creates a new LedgerExporter
func NewLedgerExporter(ledger LedgerService, audit AuditLog, logger Logger) LedgerExporter {
	return &ledgerExporterImpl{
		ledger: ledger,
		audit:  audit,
		logger: logger,
	}
}

var ledgerHeaders = []string{
	"Bill ID", "Entry Date", "Bill Date", "Date of Settlement", "Description",
	"Counterparty", "Raised By", "Approved By", "Amount", "Type", "Balance",
	"Category", "Remarks", "Payment Type",
}

const dateLayout = "2006-01-02"

// ExportXLSX builds the ledger and writes it to a single-sheet workbook
func (s *ledgerExporterImpl) ExportXLSX(ctx context.Context, actor, ipDevice string) ([]byte, error) {
	rows, err := s.ledger.Build(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for col, header := range ledgerHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		settlement := ""
		if row.DateOfSettlement != nil {
			settlement = row.DateOfSettlement.Format(dateLayout)
		}

		values := []interface{}{
			row.BillID,
			row.EntryDate.Format(dateLayout),
			row.BillDate.Format(dateLayout),
			settlement,
			row.Description,
			row.PersonName,
			row.RaisedBy,
			row.ApprovedBy,
			row.Amount.String(),
			string(row.Type),
			row.Balance.String(),
			row.Category,
			row.Remarks,
			string(row.PaymentType),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute row cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write ledger row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("Failed to serialize ledger workbook", "error", err)
		return nil, fmt.Errorf("failed to serialize ledger workbook: %w", err)
	}

	s.audit.Record(ctx, actorOr(actor, "Admin"), event.ActionExport, "",
		"", "", fmt.Sprintf("Ledger exported (%d rows)", len(rows)), ipDevice)

	s.logger.Info("Ledger exported", "rows", len(rows))
	return buf.Bytes(), nil
}
