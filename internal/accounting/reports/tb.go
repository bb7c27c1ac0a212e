package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
)

// TrialBalanceRow is the debit and credit turnover of one account.
type TrialBalanceRow struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Title     string               `json:"title"`
	Type      accounts.AccountType `json:"account_type"`
	Debit     decimal.Decimal      `json:"debit"`
	Credit    decimal.Decimal      `json:"credit"`
	Balance   decimal.Decimal      `json:"balance"`
}

// TrialBalanceGroup subtotals rows of one account type.
type TrialBalanceGroup struct {
	Type   accounts.AccountType `json:"account_type"`
	Rows   []TrialBalanceRow    `json:"rows"`
	Debit  decimal.Decimal      `json:"debit"`
	Credit decimal.Decimal      `json:"credit"`
}

// TrialBalance lists every account with posted lines in the window.
type TrialBalance struct {
	FiscalYearID int64               `json:"fiscal_year_id"`
	Currency     string              `json:"currency"`
	Window
	Groups      []TrialBalanceGroup `json:"groups"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	Balanced    bool                `json:"balanced"`
}

var typeOrder = []accounts.AccountType{
	accounts.AccountTypeAsset,
	accounts.AccountTypeLiability,
	accounts.AccountTypeEquity,
	accounts.AccountTypeRevenue,
	accounts.AccountTypeExpense,
}

// BuildTrialBalance sums lines inside w per account and groups the rows by
// account type, ordered by code inside each group.
func BuildTrialBalance(chart []accounts.Account, lines []PostedLine, w Window) TrialBalance {
	byID := index(chart)
	sums := newTotals()
	for _, l := range lines {
		if _, ok := byID[l.AccountID]; ok && w.Contains(l.Date) {
			sums.add(l)
		}
	}

	grouped := make(map[accounts.AccountType]*TrialBalanceGroup, len(typeOrder))
	for _, id := range sums.order {
		acc := byID[id]
		grp, ok := grouped[acc.Type]
		if !ok {
			grp = &TrialBalanceGroup{Type: acc.Type}
			grouped[acc.Type] = grp
		}
		row := TrialBalanceRow{
			AccountID: acc.ID,
			Code:      acc.Code,
			Title:     acc.Title,
			Type:      acc.Type,
			Debit:     sums.debit[id],
			Credit:    sums.credit[id],
		}
		row.Balance = balance(acc.Type, row.Debit, row.Credit)
		grp.Rows = append(grp.Rows, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
	}

	result := TrialBalance{Window: w, Groups: []TrialBalanceGroup{}}
	for _, t := range typeOrder {
		grp, ok := grouped[t]
		if !ok {
			continue
		}
		sort.Slice(grp.Rows, func(i, j int) bool { return grp.Rows[i].Code < grp.Rows[j].Code })
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
	}
	result.Balanced = result.TotalDebit.Equal(result.TotalCredit)
	return result
}

// Row finds the row of accountID, if present.
func (tb TrialBalance) Row(accountID int64) (TrialBalanceRow, bool) {
	for _, grp := range tb.Groups {
		for _, row := range grp.Rows {
			if row.AccountID == accountID {
				return row, true
			}
		}
	}
	return TrialBalanceRow{}, false
}
