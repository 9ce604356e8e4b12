package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
)

// Statistics summarizes the bill population for dashboards
type Statistics struct {
	TotalBills    int `json:"totalBills"`
	ApprovedBills int `json:"approvedBills"`
	DeclinedBills int `json:"declinedBills"`
}

// UserSummary aggregates one counterparty's bills
type UserSummary struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	TotalBills    int             `json:"totalBills"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PendingBills  int             `json:"pendingBills"`
	ApprovedBills int             `json:"approvedBills"`
	RejectedBills int             `json:"rejectedBills"`
	ReturnedBills int             `json:"returnedBills"`
}

// ReportService derives aggregate views from the bill store. Like the
// ledger, the aggregates are pure reads over the current bill set.
type ReportService interface {
	Statistics(ctx context.Context) (Statistics, error)
	UserSummaries(ctx context.Context) ([]UserSummary, error)
}

type reportServiceImpl struct {
	bills  port.BillRepository
	logger Logger
}

// NewReportService creates a new ReportService
func NewReportService(bills port.BillRepository, logger Logger) ReportService {
	return &reportServiceImpl{
		bills:  bills,
		logger: logger,
	}
}

// Statistics counts bills by outcome
func (s *reportServiceImpl) Statistics(ctx context.Context) (Statistics, error) {
	bills, err := s.bills.List(ctx, port.BillFilter{}, port.SortCreatedDesc)
	if err != nil {
		s.logger.Error("Failed to load bills for statistics", "error", err)
		return Statistics{}, err
	}

	stats := Statistics{TotalBills: len(bills)}
	for _, bill := range bills {
		switch bill.Status {
		case entity.StatusApproved:
			stats.ApprovedBills++
		case entity.StatusRejected:
			stats.DeclinedBills++
		}
	}

	return stats, nil
}

// UserSummaries groups bills by counterparty name and totals them
func (s *reportServiceImpl) UserSummaries(ctx context.Context) ([]UserSummary, error) {
	bills, err := s.bills.List(ctx, port.BillFilter{}, port.SortCreatedDesc)
	if err != nil {
		s.logger.Error("Failed to load bills for user summaries", "error", err)
		return nil, err
	}

	byName := make(map[string]*UserSummary)
	for _, bill := range bills {
		name := bill.CounterpartyName()
		summary, ok := byName[name]
		if !ok {
			summary = &UserSummary{
				ID:          name,
				Name:        name,
				Email:       "N/A",
				TotalAmount: decimal.Zero,
			}
			byName[name] = summary
		}

		summary.TotalBills++
		summary.TotalAmount = summary.TotalAmount.Add(bill.Amount)
		switch bill.Status {
		case entity.StatusPending:
			summary.PendingBills++
		case entity.StatusApproved:
			summary.ApprovedBills++
		case entity.StatusRejected:
			summary.RejectedBills++
		case entity.StatusReturned:
			summary.ReturnedBills++
		}
	}

	summaries := make([]UserSummary, 0, len(byName))
	for _, summary := range byName {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	return summaries, nil
}
