package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
)

func approvedBill(id string, day int, amount int64, billType entity.BillType) *entity.Bill {
	return &entity.Bill{
		ID:          id,
		EntryDate:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		BillDate:    time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		PersonName:  "Ravi",
		Amount:      decimal.NewFromInt(amount),
		Type:        billType,
		Description: "bill " + id,
		Category:    "Misc",
		PaymentType: entity.PaymentReimbursement,
		Status:      entity.StatusApproved,
	}
}

func TestBuildLedgerRows(t *testing.T) {
	t.Run("running balance folds credits and debits", func(t *testing.T) {
		bills := []*entity.Bill{
			approvedBill("a", 1, 100, entity.TypeCredit),
			approvedBill("b", 2, 30, entity.TypeDebit),
			approvedBill("c", 3, 20, entity.TypeCredit),
		}

		rows := BuildLedgerRows(bills)

		require.Len(t, rows, 3)
		assert.Equal(t, "100", rows[0].Balance.String())
		assert.Equal(t, "70", rows[1].Balance.String())
		assert.Equal(t, "90", rows[2].Balance.String())
	})

	t.Run("empty input yields empty ledger", func(t *testing.T) {
		assert.Empty(t, BuildLedgerRows(nil))
	})

	t.Run("rebuilding yields identical rows", func(t *testing.T) {
		bills := []*entity.Bill{
			approvedBill("a", 1, 100, entity.TypeCredit),
			approvedBill("b", 2, 45, entity.TypeDebit),
		}

		first := BuildLedgerRows(bills)
		second := BuildLedgerRows(bills)

		assert.Equal(t, first, second)
	})

	t.Run("attribution falls back to placeholders", func(t *testing.T) {
		bill := approvedBill("a", 1, 100, entity.TypeDebit)
		bill.PersonName = ""
		bill.ApprovedByAdminName = ""

		rows := BuildLedgerRows([]*entity.Bill{bill})

		require.Len(t, rows, 1)
		assert.Equal(t, entity.UnknownCounterparty, rows[0].PersonName)
		assert.Equal(t, "User", rows[0].RaisedBy)
		assert.Equal(t, "Admin", rows[0].ApprovedBy)
	})
}

func TestBuildLedgerRows_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "n")

		bills := make([]*entity.Bill, 0, n)
		sum := decimal.Zero
		for i := 0; i < n; i++ {
			amount := rapid.Int64Range(0, 1_000_000).Draw(t, "amount")
			billType := entity.TypeDebit
			if rapid.Bool().Draw(t, "credit") {
				billType = entity.TypeCredit
			}

			bill := approvedBill("p", 1, amount, billType)
			if billType == entity.TypeCredit {
				sum = sum.Add(bill.Amount)
			} else {
				sum = sum.Sub(bill.Amount)
			}
			bills = append(bills, bill)
		}

		rows := BuildLedgerRows(bills)

		if len(rows) != len(bills) {
			t.Fatalf("row count %d, want %d", len(rows), len(bills))
		}
		if len(rows) > 0 && !rows[len(rows)-1].Balance.Equal(sum) {
			t.Fatalf("final balance %s, want %s", rows[len(rows)-1].Balance, sum)
		}

		// Each row's balance is the previous balance plus or minus its
		// own amount.
		prev := decimal.Zero
		for i, row := range rows {
			want := prev.Sub(row.Amount)
			if row.Type == entity.TypeCredit {
				want = prev.Add(row.Amount)
			}
			if !row.Balance.Equal(want) {
				t.Fatalf("row %d balance %s, want %s", i, row.Balance, want)
			}
			prev = row.Balance
		}
	})
}

func TestLedgerService_Build(t *testing.T) {
	t.Run("queries approved bills in entry order", func(t *testing.T) {
		var gotFilter port.BillFilter
		var gotSort port.Sort
		repo := &mockBillRepo{
			listFn: func(ctx context.Context, filter port.BillFilter, sort port.Sort) ([]*entity.Bill, error) {
				gotFilter = filter
				gotSort = sort
				return []*entity.Bill{approvedBill("a", 1, 10, entity.TypeCredit)}, nil
			},
		}
		svc := NewLedgerService(repo, nopLogger{})

		rows, err := svc.Build(context.Background())

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, entity.StatusApproved, gotFilter.Status)
		assert.Equal(t, port.SortEntryDateAsc, gotSort)
	})
}
