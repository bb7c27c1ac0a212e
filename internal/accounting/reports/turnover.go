package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
)

// Movement is one line of an account ledger with the balance after it.
type Movement struct {
	EntryID     int64           `json:"entry_id"`
	VoucherNo   int64           `json:"voucher_no"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountTurnover is the ledger of a single account over a window.
type AccountTurnover struct {
	FiscalYearID int64                `json:"fiscal_year_id"`
	Currency     string               `json:"currency"`
	AccountID    int64                `json:"account_id"`
	Code         string               `json:"code"`
	Title        string               `json:"title"`
	Type         accounts.AccountType `json:"account_type"`
	Window
	Opening     decimal.Decimal `json:"opening_balance"`
	Movements   []Movement      `json:"movements"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Closing     decimal.Decimal `json:"closing_balance"`
}

// BuildTurnover computes the opening balance from lines before the window
// and the running balance over lines inside it. Lines of other accounts are
// ignored.
func BuildTurnover(acc accounts.Account, lines []PostedLine, w Window) AccountTurnover {
	own := make([]PostedLine, 0, len(lines))
	for _, l := range lines {
		if l.AccountID == acc.ID {
			own = append(own, l)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		a, b := own[i], own[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.VoucherNo != b.VoucherNo {
			return a.VoucherNo < b.VoucherNo
		}
		return a.LineID < b.LineID
	})

	out := AccountTurnover{
		FiscalYearID: acc.FiscalYearID,
		AccountID:    acc.ID,
		Code:         acc.Code,
		Title:        acc.Title,
		Type:         acc.Type,
		Window:       w,
		Movements:    []Movement{},
	}
	for _, l := range own {
		if w.Before(l.Date) {
			out.Opening = out.Opening.Add(balance(acc.Type, l.Debit, l.Credit))
		}
	}
	running := out.Opening
	for _, l := range own {
		if !w.Contains(l.Date) {
			continue
		}
		running = running.Add(balance(acc.Type, l.Debit, l.Credit))
		out.TotalDebit = out.TotalDebit.Add(l.Debit)
		out.TotalCredit = out.TotalCredit.Add(l.Credit)
		out.Movements = append(out.Movements, Movement{
			EntryID:     l.EntryID,
			VoucherNo:   l.VoucherNo,
			Date:        l.Date,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Balance:     running,
		})
	}
	out.Closing = running
	return out
}
