package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// PostedLine is one journal line of a posted entry, flattened with its header.
type PostedLine struct {
	LineID      int64
	EntryID     int64
	VoucherNo   int64
	Date        time.Time
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Window is an inclusive date range; nil bounds are open.
type Window struct {
	From *time.Time `json:"date_from,omitempty"`
	To   *time.Time `json:"date_to,omitempty"`
}

// Contains reports whether day falls inside the window.
func (w Window) Contains(day time.Time) bool {
	d := shared.DateOnly(day)
	if w.From != nil && d.Before(shared.DateOnly(*w.From)) {
		return false
	}
	if w.To != nil && d.After(shared.DateOnly(*w.To)) {
		return false
	}
	return true
}

// Before reports whether day is strictly before the window start.
func (w Window) Before(day time.Time) bool {
	return w.From != nil && shared.DateOnly(day).Before(shared.DateOnly(*w.From))
}

// balance applies the account's normal side to a debit/credit pair.
func balance(t accounts.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

func index(list []accounts.Account) map[int64]accounts.Account {
	out := make(map[int64]accounts.Account, len(list))
	for _, acc := range list {
		out[acc.ID] = acc
	}
	return out
}

// totals accumulates per-account sums in first-seen order.
type totals struct {
	order  []int64
	debit  map[int64]decimal.Decimal
	credit map[int64]decimal.Decimal
}

func newTotals() *totals {
	return &totals{debit: map[int64]decimal.Decimal{}, credit: map[int64]decimal.Decimal{}}
}

func (t *totals) add(l PostedLine) {
	if _, ok := t.debit[l.AccountID]; !ok {
		t.order = append(t.order, l.AccountID)
	}
	t.debit[l.AccountID] = t.debit[l.AccountID].Add(l.Debit)
	t.credit[l.AccountID] = t.credit[l.AccountID].Add(l.Credit)
}
