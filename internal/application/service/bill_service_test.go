package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billbookhq/billbook/internal/application/port"
	"github.com/billbookhq/billbook/internal/domain/entity"
	"github.com/billbookhq/billbook/internal/domain/event"
	"github.com/billbookhq/billbook/internal/domain/workflow"
)

type mockBillRepo struct {
	createFn        func(ctx context.Context, bill *entity.Bill) error
	getByIDFn       func(ctx context.Context, id string) (*entity.Bill, error)
	updateFn        func(ctx context.Context, bill *entity.Bill, fromStatus entity.Status) error
	transitionFn    func(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error)
	deleteFn        func(ctx context.Context, id string) error
	listFn          func(ctx context.Context, filter port.BillFilter, sort port.Sort) ([]*entity.Bill, error)
	findDuplicateFn func(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error)
}

func (m *mockBillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	if m.createFn == nil {
		bill.ID = "generated-id"
		return nil
	}
	return m.createFn(ctx, bill)
}

func (m *mockBillRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockBillRepo) Update(ctx context.Context, bill *entity.Bill, fromStatus entity.Status) error {
	return m.updateFn(ctx, bill, fromStatus)
}

func (m *mockBillRepo) TransitionStatus(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
	return m.transitionFn(ctx, id, from, to, patch)
}

func (m *mockBillRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockBillRepo) List(ctx context.Context, filter port.BillFilter, sort port.Sort) ([]*entity.Bill, error) {
	return m.listFn(ctx, filter, sort)
}

func (m *mockBillRepo) FindDuplicate(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error) {
	return m.findDuplicateFn(ctx, billDate, amount, description, personName)
}

type mockPhotoStorage struct {
	storeFn func(ctx context.Context, content []byte, contentType string) (string, error)
}

func (m *mockPhotoStorage) Store(ctx context.Context, content []byte, contentType string) (string, error) {
	if m.storeFn == nil {
		return "/photos/test.jpg", nil
	}
	return m.storeFn(ctx, content, contentType)
}

type recordingAudit struct {
	events []*event.Event
}

func (r *recordingAudit) Record(ctx context.Context, actor string, action event.Action, entityID, oldValue, newValue, details, ipDevice string) *event.Event {
	ev := event.New(actor, action, entityID, oldValue, newValue, details, ipDevice)
	r.events = append(r.events, ev)
	return ev
}

func (r *recordingAudit) List(ctx context.Context) ([]*event.Event, error) {
	return r.events, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestService(repo *mockBillRepo, audit *recordingAudit) BillService {
	return NewBillService(repo, &mockPhotoStorage{}, NewApprovalPolicy(), audit, nopLogger{})
}

func pendingBill() *entity.Bill {
	return &entity.Bill{
		ID:          "bill-1",
		EntryDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BillDate:    time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		PersonName:  "Ravi",
		Amount:      decimal.NewFromInt(250),
		Type:        entity.TypeDebit,
		Description: "Team lunch",
		Category:    "Food",
		PaymentType: entity.PaymentReimbursement,
		Status:      entity.StatusPending,
		UserID:      "user-1",
	}
}

func TestBillService_Create(t *testing.T) {
	t.Run("valid bill is persisted and audited", func(t *testing.T) {
		repo := &mockBillRepo{}
		audit := &recordingAudit{}
		svc := newTestService(repo, audit)

		bill, err := svc.Create(context.Background(), CreateBillInput{
			BillDate:    time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			PersonName:  "Ravi",
			Amount:      decimal.NewFromInt(250),
			Type:        entity.TypeDebit,
			Description: "Team lunch",
			Category:    "Food",
			UserID:      "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, bill.Status)
		assert.Equal(t, entity.PaymentReimbursement, bill.PaymentType)
		require.Len(t, audit.events, 1)
		assert.Equal(t, event.ActionCreate, audit.events[0].Action)
		assert.Equal(t, "Ravi", audit.events[0].Actor)
	})

	t.Run("incomplete non-draft is rejected before persistence", func(t *testing.T) {
		created := false
		repo := &mockBillRepo{
			createFn: func(ctx context.Context, bill *entity.Bill) error {
				created = true
				return nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		_, err := svc.Create(context.Background(), CreateBillInput{
			PersonName: "Ravi",
			UserID:     "user-1",
		})

		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.False(t, created)
	})

	t.Run("incomplete draft is accepted", func(t *testing.T) {
		repo := &mockBillRepo{}
		audit := &recordingAudit{}
		svc := newTestService(repo, audit)

		bill, err := svc.Create(context.Background(), CreateBillInput{
			PersonName: "Ravi",
			UserID:     "user-1",
			IsDraft:    true,
		})

		require.NoError(t, err)
		assert.True(t, bill.IsDraft)
		require.Len(t, audit.events, 1)
		assert.Contains(t, audit.events[0].Details, "Draft created")
	})
}

func TestBillService_CreateDirectPayment(t *testing.T) {
	repo := &mockBillRepo{}
	audit := &recordingAudit{}
	svc := newTestService(repo, audit)

	bill, err := svc.CreateDirectPayment(context.Background(), DirectPaymentInput{
		BillDate:    time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		VendorName:  "Acme Stationery",
		Amount:      decimal.NewFromInt(900),
		Description: "Printer paper",
		Category:    "Office",
		AdminID:     "admin-1",
		AdminName:   "Priya",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, bill.Status)
	assert.Equal(t, entity.PaymentDirect, bill.PaymentType)
	assert.Equal(t, entity.TypeDebit, bill.Type)
	assert.Equal(t, "admin-1", bill.CreatedByAdminID)
	require.Len(t, audit.events, 1)
	assert.Equal(t, "Priya (Creating Admin)", audit.events[0].Actor)
	assert.Contains(t, audit.events[0].Details, "pending approval")
}

func TestBillService_Transition(t *testing.T) {
	t.Run("approval stamps settlement metadata", func(t *testing.T) {
		bill := pendingBill()
		var gotPatch port.StatusPatch
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			transitionFn: func(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
				gotPatch = patch
				updated := *bill
				updated.Status = to
				return &updated, nil
			},
		}
		audit := &recordingAudit{}
		svc := newTestService(repo, audit)

		updated, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:    entity.StatusApproved,
			AdminID:   "admin-2",
			AdminName: "Priya",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusApproved, updated.Status)
		require.NotNil(t, gotPatch.DateOfSettlement)
		assert.Equal(t, "admin-2", gotPatch.ApprovedByAdminID)
		assert.Equal(t, "Priya", gotPatch.ApprovedByAdminName)
		require.Len(t, audit.events, 1)
		assert.Equal(t, event.ActionApprove, audit.events[0].Action)
		assert.Equal(t, "Priya (Approving Admin)", audit.events[0].Actor)
	})

	t.Run("creator cannot approve own direct payment", func(t *testing.T) {
		bill := pendingBill()
		bill.PaymentType = entity.PaymentDirect
		bill.CreatedByAdminID = "admin-1"

		transitioned := false
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			transitionFn: func(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
				transitioned = true
				return nil, nil
			},
		}
		audit := &recordingAudit{}
		svc := newTestService(repo, audit)

		_, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:  entity.StatusApproved,
			AdminID: "admin-1",
		})

		require.ErrorIs(t, err, ErrSelfApproval)
		assert.False(t, transitioned, "denied transition must not reach the store")
		assert.Empty(t, audit.events, "denied transition must not be audited as a change")
		assert.Equal(t, entity.StatusPending, bill.Status)
	})

	t.Run("creator may still reject own direct payment", func(t *testing.T) {
		bill := pendingBill()
		bill.PaymentType = entity.PaymentDirect
		bill.CreatedByAdminID = "admin-1"
		bill.CreatedByAdminName = "Priya"

		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			transitionFn: func(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
				updated := *bill
				updated.Status = to
				return &updated, nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		updated, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:  entity.StatusRejected,
			AdminID: "admin-1",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, updated.Status)
	})

	t.Run("draft cannot be reviewed", func(t *testing.T) {
		bill := pendingBill()
		bill.IsDraft = true
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		_, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:  entity.StatusApproved,
			AdminID: "admin-2",
		})

		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("terminal bill cannot transition again", func(t *testing.T) {
		bill := pendingBill()
		bill.Status = entity.StatusApproved
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		_, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:  entity.StatusRejected,
			AdminID: "admin-2",
		})

		require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})

	t.Run("unknown target status is rejected", func(t *testing.T) {
		svc := newTestService(&mockBillRepo{}, &recordingAudit{})

		_, err := svc.Transition(context.Background(), "bill-1", TransitionInput{
			Target:  entity.Status("archived"),
			AdminID: "admin-2",
		})

		require.ErrorIs(t, err, workflow.ErrInvalidTarget)
	})

	t.Run("lost compare-and-set surfaces as conflict", func(t *testing.T) {
		bill := pendingBill()
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			transitionFn: func(ctx context.Context, id string, from, to entity.Status, patch port.StatusPatch) (*entity.Bill, error) {
				return nil, entity.ErrConflict
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		_, err := svc.Transition(context.Background(), bill.ID, TransitionInput{
			Target:  entity.StatusApproved,
			AdminID: "admin-2",
		})

		require.ErrorIs(t, err, entity.ErrConflict)
	})
}

func TestBillService_Update(t *testing.T) {
	validInput := UpdateBillInput{
		BillDate:    time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		PersonName:  "Ravi",
		Amount:      decimal.NewFromInt(300),
		Type:        entity.TypeDebit,
		Description: "Team lunch, corrected amount",
		Category:    "Food",
	}

	t.Run("rejected bill is final", func(t *testing.T) {
		bill := pendingBill()
		bill.Status = entity.StatusRejected
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		_, err := svc.Update(context.Background(), bill.ID, validInput)

		require.ErrorIs(t, err, entity.ErrBillFinalized)
	})

	t.Run("updating a returned bill resubmits it", func(t *testing.T) {
		bill := pendingBill()
		bill.Status = entity.StatusReturned
		bill.Remarks = "Attach the receipt"

		var gotFrom entity.Status
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			updateFn: func(ctx context.Context, b *entity.Bill, fromStatus entity.Status) error {
				gotFrom = fromStatus
				return nil
			},
		}
		audit := &recordingAudit{}
		svc := newTestService(repo, audit)

		updated, err := svc.Update(context.Background(), bill.ID, validInput)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, updated.Status)
		assert.Empty(t, updated.Remarks, "resubmission clears the reviewer's remarks")
		assert.Equal(t, entity.StatusReturned, gotFrom)
		require.Len(t, audit.events, 1)
		assert.Equal(t, event.ActionUpdate, audit.events[0].Action)
	})

	t.Run("pending bill keeps its status", func(t *testing.T) {
		bill := pendingBill()
		repo := &mockBillRepo{
			getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
				return bill, nil
			},
			updateFn: func(ctx context.Context, b *entity.Bill, fromStatus entity.Status) error {
				return nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		updated, err := svc.Update(context.Background(), bill.ID, validInput)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, updated.Status)
		assert.Equal(t, "Team lunch, corrected amount", updated.Description)
	})
}

func TestBillService_Delete(t *testing.T) {
	bill := pendingBill()
	repo := &mockBillRepo{
		getByIDFn: func(ctx context.Context, id string) (*entity.Bill, error) {
			return bill, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	audit := &recordingAudit{}
	svc := newTestService(repo, audit)

	err := svc.Delete(context.Background(), bill.ID, "Priya", "10.0.0.1")

	require.NoError(t, err)
	require.Len(t, audit.events, 1)
	assert.Equal(t, event.ActionDelete, audit.events[0].Action)
	assert.Equal(t, "pending", audit.events[0].OldValue)
}

func TestBillService_CheckDuplicate(t *testing.T) {
	t.Run("reports a found duplicate", func(t *testing.T) {
		repo := &mockBillRepo{
			findDuplicateFn: func(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error) {
				return true, nil
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		found := svc.CheckDuplicate(context.Background(),
			time.Now(), decimal.NewFromInt(250), "lunch", "Ravi")

		assert.True(t, found)
	})

	t.Run("detector failure degrades to no duplicate", func(t *testing.T) {
		repo := &mockBillRepo{
			findDuplicateFn: func(ctx context.Context, billDate time.Time, amount decimal.Decimal, description, personName string) (bool, error) {
				return false, errors.New("db closed")
			},
		}
		svc := newTestService(repo, &recordingAudit{})

		found := svc.CheckDuplicate(context.Background(),
			time.Now(), decimal.NewFromInt(250), "lunch", "Ravi")

		assert.False(t, found)
	})
}
