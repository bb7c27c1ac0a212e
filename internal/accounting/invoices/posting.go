package invoices

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Ledger holds the chart accounts an invoice posts to. Main is revenue for
// sales and expense for purchases; Counter is the person's receivable or
// payable.
type Ledger struct {
	Counter    int64
	Main       int64
	Tax        int64
	Shipping   int64
	Additions  int64
	Deductions int64
}

type ruleKeys struct {
	counter, main, tax, shipping, additions, deductions string
}

var rules = map[Type]ruleKeys{
	TypeSales: {
		counter: mappings.PersonReceivable, main: mappings.SalesRevenue, tax: mappings.SalesTax,
		shipping: mappings.SalesShipping, additions: mappings.SalesAdditions, deductions: mappings.SalesDeductions,
	},
	TypePurchase: {
		counter: mappings.PersonPayable, main: mappings.PurchaseExpense, tax: mappings.PurchaseTax,
		shipping: mappings.PurchaseShipping, additions: mappings.PurchaseAdditions, deductions: mappings.PurchaseDeductions,
	},
}

// resolveLedger looks up only the mappings the totals actually touch.
func resolveLedger(ctx context.Context, tx journals.TxRepository, fiscalYearID int64, typ Type, t Totals) (Ledger, error) {
	keys, ok := rules[typ]
	if !ok {
		return Ledger{}, fmt.Errorf("invoice type %s: %w", typ, shared.ErrProformaNotPostable)
	}
	var (
		l   Ledger
		err error
	)
	resolve := func(dst *int64, amount decimal.Decimal, key string) {
		if err != nil || amount.IsZero() {
			return
		}
		*dst, err = tx.ResolveMapping(ctx, fiscalYearID, key)
	}
	resolve(&l.Counter, t.Total, keys.counter)
	resolve(&l.Main, t.Net, keys.main)
	resolve(&l.Tax, t.Tax, keys.tax)
	resolve(&l.Shipping, t.Shipping, keys.shipping)
	resolve(&l.Additions, t.Additions, keys.additions)
	resolve(&l.Deductions, t.Deductions, keys.deductions)
	return l, err
}

// Lines builds the journal lines of a confirmed invoice. A sales invoice
// debits the receivable for the total and any deductions and credits net
// revenue, tax, shipping and additions. A purchase mirrors every side.
// Zero amounts produce no line.
func Lines(inv Invoice, t Totals, l Ledger) []journals.LineInput {
	memo := inv.Description
	if memo == "" {
		memo = fmt.Sprintf("%s invoice %d", inv.Type, inv.InvoiceNo)
	}
	type part struct {
		account int64
		amount  decimal.Decimal
		debit   bool
	}
	parts := []part{
		{l.Counter, t.Total, true},
		{l.Deductions, t.Deductions, true},
		{l.Main, t.Net, false},
		{l.Tax, t.Tax, false},
		{l.Shipping, t.Shipping, false},
		{l.Additions, t.Additions, false},
	}
	var lines []journals.LineInput
	for _, p := range parts {
		if p.amount.IsZero() {
			continue
		}
		line := journals.LineInput{AccountID: p.account, Description: memo}
		if p.debit == (inv.Type == TypeSales) {
			line.Debit = p.amount
		} else {
			line.Credit = p.amount
		}
		lines = append(lines, line)
	}
	return lines
}
