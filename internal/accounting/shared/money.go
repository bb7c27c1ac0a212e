package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns base * pct / 100 rounded to cents.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(pct).Div(hundred))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WithinRange reports whether day lies in [start, end] by calendar date.
func WithinRange(day, start, end time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// Numeric renders d for a NUMERIC(18,2) parameter.
func Numeric(d decimal.Decimal) string {
	return d.StringFixed(2)
}
