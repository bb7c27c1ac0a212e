package vouchers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Type enumerates voucher kinds.
type Type string

const (
	TypeReceipt  Type = "receipt"
	TypePayment  Type = "payment"
	TypeTransfer Type = "transfer"
)

func (t Type) Valid() bool {
	return t == TypeReceipt || t == TypePayment || t == TypeTransfer
}

// Status enumerates voucher lifecycle values.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

var transitions = shared.Transitions[Status]{
	StatusDraft: {StatusPosted},
}

// Voucher is a cash or bank movement document.
type Voucher struct {
	ID                      int64           `json:"id"`
	FiscalYearID            int64           `json:"fiscal_year_id"`
	VoucherNo               int64           `json:"voucher_no"`
	VoucherDate             time.Time       `json:"voucher_date"`
	Type                    Type            `json:"type"`
	CashAccountID           int64           `json:"cash_account_id"`
	TransferToCashAccountID *int64          `json:"transfer_to_cash_account_id"`
	PersonID                *int64          `json:"person_id"`
	CounterAccountID        *int64          `json:"counter_account_id"`
	Amount                  decimal.Decimal `json:"amount"`
	BankFee                 decimal.Decimal `json:"bank_fee"`
	Description             string          `json:"description"`
	InvoiceID               *int64          `json:"invoice_id"`
	ProjectID               *int64          `json:"project_id"`
	JournalEntryID          *int64          `json:"journal_entry_id"`
	Status                  Status          `json:"status"`
	CreatedBy               int64           `json:"created_by"`
	PostedAt                *time.Time      `json:"posted_at"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	FiscalYearID  int64
	Status        Status
	Type          Type
	CashAccountID int64
}
