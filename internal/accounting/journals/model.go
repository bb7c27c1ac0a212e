package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Status enumerates journal lifecycle values.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// transitions is the journal entry state machine; posted is terminal.
var transitions = shared.Transitions[Status]{
	StatusDraft: {StatusPosted},
}

// JournalEntry captures a dated set of debit/credit lines.
type JournalEntry struct {
	ID            int64         `json:"id"`
	FiscalYearID  int64         `json:"fiscal_year_id"`
	VoucherNo     int64         `json:"voucher_no"`
	VoucherDate   time.Time     `json:"voucher_date"`
	Description   string        `json:"description"`
	ReferenceType *string       `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id"`
	SourceKey     *uuid.UUID    `json:"-"`
	Status        Status        `json:"status"`
	CreatedBy     int64         `json:"created_by"`
	PostedAt      *time.Time    `json:"posted_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Lines         []JournalLine `json:"lines,omitempty"`
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entry_id"`
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	SortOrder   int             `json:"sort_order"`
}

// Totals sums both sides of lines.
func Totals(lines []JournalLine) (debit, credit decimal.Decimal) {
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// ListFilter narrows List results.
type ListFilter struct {
	FiscalYearID int64
	Status       Status
	Limit        int
}
