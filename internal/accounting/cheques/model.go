package cheques

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Type distinguishes cheques we hold from cheques we issued.
type Type string

const (
	TypeReceivable Type = "receivable"
	TypePayable    Type = "payable"
)

func (t Type) Valid() bool {
	return t == TypeReceivable || t == TypePayable
}

// Status is the safe-custody state of a cheque.
type Status string

const (
	StatusInSafe    Status = "in_safe"
	StatusCollected Status = "collected"
	StatusReturned  Status = "returned"
	StatusSpent     Status = "spent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInSafe, StatusCollected, StatusReturned, StatusSpent:
		return true
	}
	return false
}

// transitions leaves in_safe exactly once; every target is terminal.
var transitions = shared.Transitions[Status]{
	StatusInSafe: {StatusCollected, StatusReturned, StatusSpent},
}

// Cheque is a paper instrument tracked until it leaves the safe.
type Cheque struct {
	ID               int64           `json:"id"`
	Type             Type            `json:"type"`
	CheckNo          string          `json:"check_no"`
	CheckDate        time.Time       `json:"check_date"`
	DueDate          time.Time       `json:"due_date"`
	Amount           decimal.Decimal `json:"amount"`
	CashAccountID    int64           `json:"cash_account_id"`
	PersonID         *int64          `json:"person_id"`
	Description      string          `json:"description"`
	ReceiptVoucherID *int64          `json:"receipt_voucher_id"`
	JournalEntryID   *int64          `json:"journal_entry_id"`
	Status           Status          `json:"status"`
	StatusChangedAt  *time.Time      `json:"status_changed_at"`
	CreatedBy        int64           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Type      Type
	Status    Status
	DueBefore *time.Time
}
