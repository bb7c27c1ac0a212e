package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// LineInput carries the raw fields of an invoice line.
type LineInput struct {
	ProductID       int64
	UnitID          *int64
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxPercent      decimal.Decimal
	TaxAmount       decimal.Decimal
	Description     string
}

func (l LineInput) validate(idx int) error {
	fail := func(msg string) error {
		return fmt.Errorf("%w: line %d %s", shared.ErrInvalidInvoiceLine, idx+1, msg)
	}
	switch {
	case l.ProductID <= 0:
		return fail("missing product")
	case !l.Quantity.IsPositive():
		return fail("quantity must be positive")
	case !l.Quantity.Equal(l.Quantity.Round(4)):
		return fail("quantity carries at most four decimals")
	case l.UnitPrice.IsNegative():
		return fail("unit price cannot be negative")
	case l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred):
		return fail("discount percent must be within 0..100")
	case l.TaxPercent.IsNegative() || l.TaxPercent.GreaterThan(hundred):
		return fail("tax percent must be within 0..100")
	case l.DiscountAmount.IsNegative() || l.TaxAmount.IsNegative():
		return fail("amounts cannot be negative")
	}
	for _, d := range []decimal.Decimal{l.UnitPrice, l.DiscountAmount, l.TaxAmount} {
		if !d.Equal(shared.Round2(d)) {
			return fail("amounts carry at most two decimals")
		}
	}
	a := l.Compute()
	if a.Discount.GreaterThan(a.Subtotal) {
		return fail("discount exceeds subtotal")
	}
	return nil
}

// Input carries the editable fields of an invoice. A zero FiscalYearID
// resolves to the active fiscal year. On update a nil Lines keeps the stored
// lines; a non-nil Lines replaces them.
type Input struct {
	FiscalYearID    int64
	Type            Type
	PersonID        int64
	InvoiceDate     time.Time
	DueDate         *time.Time
	SellerID        *int64
	ProjectID       *int64
	ShippingCost    decimal.Decimal
	ExtraAdditions  decimal.Decimal
	ExtraDeductions decimal.Decimal
	Description     string
	Lines           []LineInput
}

// Validate checks the fields that need no lookups. Lines, when given, must
// not be empty.
func (in Input) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown invoice type %q", internalShared.ErrValidation, in.Type)
	}
	if in.PersonID <= 0 {
		return fmt.Errorf("%w: person required", internalShared.ErrValidation)
	}
	if in.InvoiceDate.IsZero() {
		return fmt.Errorf("%w: invoice date required", internalShared.ErrValidation)
	}
	if in.DueDate != nil && shared.DateOnly(*in.DueDate).Before(shared.DateOnly(in.InvoiceDate)) {
		return fmt.Errorf("%w: due date precedes invoice date", internalShared.ErrValidation)
	}
	for _, d := range []decimal.Decimal{in.ShippingCost, in.ExtraAdditions, in.ExtraDeductions} {
		if d.IsNegative() {
			return fmt.Errorf("%w: charges cannot be negative", internalShared.ErrValidation)
		}
		if !d.Equal(shared.Round2(d)) {
			return fmt.Errorf("%w: charges carry at most two decimals", internalShared.ErrValidation)
		}
	}
	if in.Lines != nil && len(in.Lines) == 0 {
		return fmt.Errorf("%w: invoice requires lines", shared.ErrInvalidInvoiceLine)
	}
	for idx, l := range in.Lines {
		if err := l.validate(idx); err != nil {
			return err
		}
	}
	return nil
}

func (in Input) apply(inv *Invoice) {
	inv.Type = in.Type
	inv.PersonID = in.PersonID
	inv.InvoiceDate = shared.DateOnly(in.InvoiceDate)
	inv.DueDate = nil
	if in.DueDate != nil {
		due := shared.DateOnly(*in.DueDate)
		inv.DueDate = &due
	}
	inv.SellerID = in.SellerID
	inv.ProjectID = in.ProjectID
	inv.ShippingCost = in.ShippingCost
	inv.ExtraAdditions = in.ExtraAdditions
	inv.ExtraDeductions = in.ExtraDeductions
	inv.Description = in.Description
}

type lineRequest struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	UnitID          *int64          `json:"unit_id" validate:"omitempty,gt=0"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Description     string          `json:"description" validate:"max=500"`
}

type invoiceRequest struct {
	FiscalYearID    int64           `json:"fiscal_year_id" validate:"gte=0"`
	Type            string          `json:"invoice_type" validate:"required,oneof=proforma sales purchase"`
	PersonID        int64           `json:"person_id" validate:"required,gt=0"`
	InvoiceDate     string          `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	DueDate         string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	SellerID        *int64          `json:"seller_id" validate:"omitempty,gt=0"`
	ProjectID       *int64          `json:"project_id" validate:"omitempty,gt=0"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ExtraAdditions  decimal.Decimal `json:"extra_additions"`
	ExtraDeductions decimal.Decimal `json:"extra_deductions"`
	Description     string          `json:"description" validate:"max=1000"`
	Lines           []lineRequest   `json:"lines" validate:"omitempty,dive"`
}

func (r invoiceRequest) toInput() Input {
	invoiceDate, _ := time.Parse(httpx.DateLayout, r.InvoiceDate)
	in := Input{
		FiscalYearID:    r.FiscalYearID,
		Type:            Type(r.Type),
		PersonID:        r.PersonID,
		InvoiceDate:     invoiceDate,
		SellerID:        r.SellerID,
		ProjectID:       r.ProjectID,
		ShippingCost:    r.ShippingCost,
		ExtraAdditions:  r.ExtraAdditions,
		ExtraDeductions: r.ExtraDeductions,
		Description:     r.Description,
	}
	if r.DueDate != "" {
		due, _ := time.Parse(httpx.DateLayout, r.DueDate)
		in.DueDate = &due
	}
	if r.Lines != nil {
		in.Lines = make([]LineInput, 0, len(r.Lines))
		for _, l := range r.Lines {
			in.Lines = append(in.Lines, LineInput(l))
		}
	}
	return in
}

type returnRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}
