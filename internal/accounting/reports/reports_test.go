package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dp(s string) *time.Time {
	t := day(s)
	return &t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var chart = []accounts.Account{
	{ID: 1, FiscalYearID: 1, Code: "1000", Title: "Cash", Type: accounts.AccountTypeAsset},
	{ID: 2, FiscalYearID: 1, Code: "2000", Title: "Payables", Type: accounts.AccountTypeLiability},
	{ID: 3, FiscalYearID: 1, Code: "3000", Title: "Capital", Type: accounts.AccountTypeEquity},
	{ID: 4, FiscalYearID: 1, Code: "4000", Title: "Sales Revenue", Type: accounts.AccountTypeRevenue},
	{ID: 5, FiscalYearID: 1, Code: "5000", Title: "Rent", Type: accounts.AccountTypeExpense},
	{ID: 6, FiscalYearID: 1, Code: "1100", Title: "Unused", Type: accounts.AccountTypeAsset},
}

func entry(id, no int64, date string, legs ...PostedLine) []PostedLine {
	for i := range legs {
		legs[i].EntryID = id
		legs[i].VoucherNo = no
		legs[i].Date = day(date)
		legs[i].LineID = id*10 + int64(i)
	}
	return legs
}

func dr(account int64, amount string) PostedLine {
	return PostedLine{AccountID: account, Debit: dec(amount)}
}

func cr(account int64, amount string) PostedLine {
	return PostedLine{AccountID: account, Credit: dec(amount)}
}

func ledger() []PostedLine {
	var lines []PostedLine
	lines = append(lines, entry(1, 1, "2024-01-05", dr(1, "5000.00"), cr(3, "5000.00"))...)
	lines = append(lines, entry(2, 2, "2024-02-10", dr(1, "1000.00"), cr(4, "1000.00"))...)
	lines = append(lines, entry(3, 3, "2024-03-01", dr(5, "300.00"), cr(2, "300.00"))...)
	lines = append(lines, entry(4, 4, "2024-03-15", dr(2, "300.00"), cr(1, "300.00"))...)
	return lines
}

func TestTrialBalanceSingleSale(t *testing.T) {
	lines := entry(1, 1, "2024-02-10", dr(1, "1000"), cr(4, "1000"))
	tb := BuildTrialBalance(chart, lines, Window{})

	cash, ok := tb.Row(1)
	require.True(t, ok)
	assert.True(t, cash.Debit.Equal(dec("1000")))
	assert.True(t, cash.Credit.IsZero())

	sales, ok := tb.Row(4)
	require.True(t, ok)
	assert.True(t, sales.Debit.IsZero())
	assert.True(t, sales.Credit.Equal(dec("1000")))

	_, ok = tb.Row(6)
	assert.False(t, ok, "accounts without lines are omitted")
	assert.True(t, tb.Balanced)
}

func TestTrialBalanceTotalsEqual(t *testing.T) {
	tb := BuildTrialBalance(chart, ledger(), Window{})
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
	assert.True(t, tb.TotalDebit.Equal(dec("6600.00")))
	require.Len(t, tb.Groups, 5)
	assert.Equal(t, accounts.AccountTypeAsset, tb.Groups[0].Type)
	assert.Equal(t, accounts.AccountTypeExpense, tb.Groups[4].Type)

	windowed := BuildTrialBalance(chart, ledger(), Window{From: dp("2024-02-01"), To: dp("2024-02-28")})
	assert.True(t, windowed.TotalDebit.Equal(dec("1000.00")))
	assert.True(t, windowed.Balanced)
}

func TestTurnoverRunningBalance(t *testing.T) {
	report := BuildTurnover(chart[0], ledger(), Window{From: dp("2024-02-01")})
	assert.True(t, report.Opening.Equal(dec("5000.00")))
	require.Len(t, report.Movements, 2)
	assert.True(t, report.Movements[0].Balance.Equal(dec("6000.00")))
	assert.True(t, report.Movements[1].Balance.Equal(dec("5700.00")))
	assert.True(t, report.Closing.Equal(dec("5700.00")))
	assert.True(t, report.TotalDebit.Equal(dec("1000.00")))
	assert.True(t, report.TotalCredit.Equal(dec("300.00")))

	full := BuildTurnover(chart[0], ledger(), Window{})
	assert.True(t, full.Opening.IsZero())
	assert.Len(t, full.Movements, 3)
	assert.True(t, full.Closing.Equal(dec("5700.00")))
}

func TestTurnoverCreditNormalAccount(t *testing.T) {
	report := BuildTurnover(chart[3], ledger(), Window{})
	require.Len(t, report.Movements, 1)
	assert.True(t, report.Movements[0].Balance.Equal(dec("1000.00")))

	payables := BuildTurnover(chart[1], ledger(), Window{})
	require.Len(t, payables.Movements, 2)
	assert.True(t, payables.Movements[0].Balance.Equal(dec("300.00")))
	assert.True(t, payables.Closing.IsZero())
}

func TestBalanceSheetEquation(t *testing.T) {
	for _, asOf := range []string{"2024-01-31", "2024-02-28", "2024-03-10", "2024-12-31"} {
		bs := BuildBalanceSheet(chart, ledger(), day(asOf))
		assert.True(t, bs.Balanced, asOf)
		assert.True(t, bs.Assets.Total.Equal(bs.TotalLiabilitiesAndEquity), asOf)
	}

	bs := BuildBalanceSheet(chart, ledger(), day("2024-12-31"))
	assert.True(t, bs.Assets.Total.Equal(dec("5700.00")))
	assert.True(t, bs.CurrentEarnings.Equal(dec("700.00")))
	last := bs.Equity.Accounts[len(bs.Equity.Accounts)-1]
	assert.Equal(t, CurrentEarningsTitle, last.Title)
}

func TestProfitAndLoss(t *testing.T) {
	pl := BuildProfitAndLoss(chart, ledger(), Window{From: dp("2024-01-01"), To: dp("2024-12-31")})
	assert.True(t, pl.Revenue.Total.Equal(dec("1000.00")))
	assert.True(t, pl.Expense.Total.Equal(dec("300.00")))
	assert.True(t, pl.NetIncome.Equal(dec("700.00")))

	q1 := BuildProfitAndLoss(chart, ledger(), Window{From: dp("2024-01-01"), To: dp("2024-02-28")})
	assert.True(t, q1.NetIncome.Equal(dec("1000.00")))
	assert.Empty(t, q1.Expense.Accounts)
}

func TestCheckIntegrity(t *testing.T) {
	lines := ledger()
	report := CheckIntegrity(lines)
	assert.Equal(t, 4, report.Entries)
	assert.Empty(t, report.Imbalanced)

	lines = append(lines, entry(9, 9, "2024-04-01", dr(1, "10.00"), cr(4, "9.99"))...)
	report = CheckIntegrity(lines)
	require.Len(t, report.Imbalanced, 1)
	assert.Equal(t, int64(9), report.Imbalanced[0].EntryID)
}
