package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Amounts is the money breakdown of one line.
type Amounts struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute prices a line. A non-zero flat amount wins over its percentage;
// discount applies to quantity × price and tax to the discounted net.
func (l LineInput) Compute() Amounts {
	subtotal := shared.Round2(l.Quantity.Mul(l.UnitPrice))
	discount := l.DiscountAmount
	if discount.IsZero() {
		discount = shared.Percent(subtotal, l.DiscountPercent)
	}
	net := subtotal.Sub(discount)
	tax := l.TaxAmount
	if tax.IsZero() {
		tax = shared.Percent(net, l.TaxPercent)
	}
	return Amounts{Subtotal: subtotal, Discount: discount, Net: net, Tax: tax, Total: net.Add(tax)}
}

// Totals aggregates an invoice.
type Totals struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Net        decimal.Decimal
	Tax        decimal.Decimal
	LinesTotal decimal.Decimal
	Shipping   decimal.Decimal
	Additions  decimal.Decimal
	Deductions decimal.Decimal
	Total      decimal.Decimal
}

// Charges are the header amounts added to or taken from the line sum.
type Charges struct {
	Shipping   decimal.Decimal
	Additions  decimal.Decimal
	Deductions decimal.Decimal
}

// ComputeTotals sums lines and applies the header charges.
func ComputeTotals(lines []LineInput, c Charges) Totals {
	t := Totals{Shipping: c.Shipping, Additions: c.Additions, Deductions: c.Deductions}
	for _, l := range lines {
		a := l.Compute()
		t.Subtotal = t.Subtotal.Add(a.Subtotal)
		t.Discount = t.Discount.Add(a.Discount)
		t.Net = t.Net.Add(a.Net)
		t.Tax = t.Tax.Add(a.Tax)
		t.LinesTotal = t.LinesTotal.Add(a.Total)
	}
	t.Total = t.LinesTotal.Add(c.Shipping).Add(c.Additions).Sub(c.Deductions)
	return t
}

func (inv Invoice) charges() Charges {
	return Charges{Shipping: inv.ShippingCost, Additions: inv.ExtraAdditions, Deductions: inv.ExtraDeductions}
}

func (t Totals) applyTo(inv *Invoice) {
	inv.Subtotal = t.Subtotal
	inv.DiscountTotal = t.Discount
	inv.TaxTotal = t.Tax
	inv.Total = t.Total
}

func priced(lines []LineInput) []Line {
	out := make([]Line, 0, len(lines))
	for idx, l := range lines {
		out = append(out, Line{
			ProductID:       l.ProductID,
			UnitID:          l.UnitID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			TaxPercent:      l.TaxPercent,
			TaxAmount:       l.TaxAmount,
			LineTotal:       l.Compute().Total,
			Description:     l.Description,
			SortOrder:       idx + 1,
		})
	}
	return out
}

func inputsOf(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineInput{
			ProductID:       l.ProductID,
			UnitID:          l.UnitID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			TaxPercent:      l.TaxPercent,
			TaxAmount:       l.TaxAmount,
			Description:     l.Description,
		})
	}
	return out
}
