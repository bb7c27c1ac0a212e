package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Type enumerates invoice kinds. Proformas are quotes and never post.
type Type string

const (
	TypeProforma Type = "proforma"
	TypeSales    Type = "sales"
	TypePurchase Type = "purchase"
)

func (t Type) Valid() bool {
	return t == TypeProforma || t == TypeSales || t == TypePurchase
}

// Sequence is the document_sequences key; numbers run per type.
func (t Type) Sequence() string {
	return "invoice:" + string(t)
}

// Status enumerates invoice lifecycle values.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusReturned  Status = "returned"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusConfirmed || s == StatusReturned
}

var transitions = shared.Transitions[Status]{
	StatusDraft:     {StatusConfirmed},
	StatusConfirmed: {StatusReturned},
}

// Invoice is a sales, purchase or proforma document.
type Invoice struct {
	ID              int64           `json:"id"`
	FiscalYearID    int64           `json:"fiscal_year_id"`
	InvoiceNo       int64           `json:"invoice_no"`
	Type            Type            `json:"invoice_type"`
	PersonID        int64           `json:"person_id"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         *time.Time      `json:"due_date"`
	Status          Status          `json:"status"`
	SellerID        *int64          `json:"seller_id"`
	ProjectID       *int64          `json:"project_id"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ExtraAdditions  decimal.Decimal `json:"extra_additions"`
	ExtraDeductions decimal.Decimal `json:"extra_deductions"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	Total           decimal.Decimal `json:"total"`
	Description     string          `json:"description"`
	JournalEntryID  *int64          `json:"journal_entry_id"`
	ReturnEntryID   *int64          `json:"return_entry_id"`
	CreatedBy       int64           `json:"created_by"`
	ConfirmedAt     *time.Time      `json:"confirmed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []Line          `json:"lines,omitempty"`
}

// Line is one product row of an invoice.
type Line struct {
	ID              int64           `json:"id"`
	InvoiceID       int64           `json:"invoice_id"`
	ProductID       int64           `json:"product_id"`
	UnitID          *int64          `json:"unit_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Description     string          `json:"description"`
	SortOrder       int             `json:"sort_order"`
}

// ListFilter narrows List results.
type ListFilter struct {
	FiscalYearID int64
	Type         Type
	Status       Status
	PersonID     int64
}
