package fiscalyears

import (
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// FiscalYear is a bounded accounting period.
type FiscalYear struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether day falls inside the year.
func (fy FiscalYear) Contains(day time.Time) bool {
	return !day.Before(fy.StartDate) && !day.After(fy.EndDate)
}

// Dependents counts documents that pin a fiscal year.
type Dependents struct {
	JournalEntries int64
	Invoices       int64
	Vouchers       int64
	Accounts       int64
}

// Total sums every dependent kind.
func (d Dependents) Total() int64 {
	return d.JournalEntries + d.Invoices + d.Vouchers + d.Accounts
}

// DocumentSpan is the first and last document date booked in a year. Both
// are nil while the year holds no documents.
type DocumentSpan struct {
	First *time.Time
	Last  *time.Time
}

// Covers reports whether [start, end] still contains every document date.
func (d DocumentSpan) Covers(start, end time.Time) bool {
	if d.First == nil || d.Last == nil {
		return true
	}
	return shared.WithinRange(*d.First, start, end) && shared.WithinRange(*d.Last, start, end)
}
