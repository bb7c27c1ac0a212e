package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EntryImbalance describes a posted entry whose lines do not balance.
type EntryImbalance struct {
	EntryID   int64           `json:"entry_id"`
	VoucherNo int64           `json:"voucher_no"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// IntegrityReport is the outcome of re-summing every posted entry of a year.
type IntegrityReport struct {
	FiscalYearID int64            `json:"fiscal_year_id"`
	Entries      int              `json:"entries"`
	Imbalanced   []EntryImbalance `json:"imbalanced"`
}

// CheckIntegrity re-sums posted lines per entry.
func CheckIntegrity(lines []PostedLine) IntegrityReport {
	sums := map[int64]*EntryImbalance{}
	for _, l := range lines {
		s, ok := sums[l.EntryID]
		if !ok {
			s = &EntryImbalance{EntryID: l.EntryID, VoucherNo: l.VoucherNo}
			sums[l.EntryID] = s
		}
		s.Debit = s.Debit.Add(l.Debit)
		s.Credit = s.Credit.Add(l.Credit)
	}
	report := IntegrityReport{Entries: len(sums), Imbalanced: []EntryImbalance{}}
	for _, s := range sums {
		if !s.Debit.Equal(s.Credit) {
			report.Imbalanced = append(report.Imbalanced, *s)
		}
	}
	sort.Slice(report.Imbalanced, func(i, j int) bool { return report.Imbalanced[i].EntryID < report.Imbalanced[j].EntryID })
	return report
}
