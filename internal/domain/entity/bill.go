package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the review status of a bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReturned Status = "returned"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusReturned: true,
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known bill status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// BillType is the sign convention of a bill for the ledger balance
type BillType string

const (
	TypeCredit BillType = "credit"
	TypeDebit  BillType = "debit"
)

// IsValid returns true if the bill type is credit or debit
func (t BillType) IsValid() bool {
	return t == TypeCredit || t == TypeDebit
}

// PaymentType distinguishes user-submitted reimbursements from
// admin-initiated direct payments
type PaymentType string

const (
	PaymentReimbursement PaymentType = "reimbursement"
	PaymentDirect        PaymentType = "direct"
)

// IsValid returns true if the payment type is a known value
func (p PaymentType) IsValid() bool {
	return p == PaymentReimbursement || p == PaymentDirect
}

// UnknownCounterparty is the sentinel name used when a bill carries
// neither a person nor a vendor name.
const UnknownCounterparty = "Unknown"

// Bill represents a financial claim or payment record
type Bill struct {
	ID               string          `json:"id"`
	EntryDate        time.Time       `json:"entryDate"`
	BillDate         time.Time       `json:"billDate"`
	DateOfSettlement *time.Time      `json:"dateOfSettlement,omitempty"`
	PersonName       string          `json:"personName,omitempty"`
	VendorName       string          `json:"vendorName,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Type             BillType        `json:"type"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category,omitempty"`
	PaymentType      PaymentType     `json:"paymentType"`
	Status           Status          `json:"status"`
	IsDraft          bool            `json:"isDraft"`
	UserID           string          `json:"userId"`

	// Set only for direct payments
	CreatedByAdminID   string `json:"createdByAdminId,omitempty"`
	CreatedByAdminName string `json:"createdByAdminName,omitempty"`

	// Set only on approval
	ApprovedByAdminID   string `json:"approvedByAdminId,omitempty"`
	ApprovedByAdminName string `json:"approvedByAdminName,omitempty"`

	Remarks  string `json:"remarks,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CounterpartyName resolves the canonical counterparty name:
// personName, falling back to vendorName, falling back to "Unknown".
func (b *Bill) CounterpartyName() string {
	if b.PersonName != "" {
		return b.PersonName
	}
	if b.VendorName != "" {
		return b.VendorName
	}
	return UnknownCounterparty
}

// RaisedBy returns who is attributed as raising the bill: the creating
// admin for direct payments, otherwise the counterparty itself.
func (b *Bill) RaisedBy() string {
	if b.PaymentType == PaymentDirect {
		if b.CreatedByAdminName != "" {
			return b.CreatedByAdminName
		}
		return "Admin"
	}
	if b.PersonName != "" {
		return b.PersonName
	}
	return "User"
}

// ValidateSubmission checks the required-unless-draft field constraints.
// It is evaluated identically at create and update time. Drafts relax
// every requirement below except the type and payment-type enumerations,
// which must be well-formed whenever they are set.
func ValidateSubmission(b *Bill) error {
	if b.Type != "" && !b.Type.IsValid() {
		return &ValidationError{Reason: "type must be credit or debit"}
	}
	if b.PaymentType != "" && !b.PaymentType.IsValid() {
		return &ValidationError{Reason: "paymentType must be reimbursement or direct"}
	}
	if b.Amount.IsNegative() {
		return &ValidationError{Reason: "amount must be non-negative"}
	}

	if b.IsDraft {
		return nil
	}

	var missing []string
	if b.BillDate.IsZero() {
		missing = append(missing, "billDate")
	}
	if b.PersonName == "" && b.VendorName == "" {
		missing = append(missing, "personName")
	}
	if b.Amount.IsZero() {
		// A zero-amount bill carries no business meaning, so zero is
		// treated the same as an omitted amount.
		missing = append(missing, "amount")
	}
	if b.Type == "" {
		missing = append(missing, "type")
	}
	if b.Description == "" {
		missing = append(missing, "description")
	}
	if b.Category == "" {
		missing = append(missing, "category")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
