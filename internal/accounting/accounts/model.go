package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether a debit increases the balance.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account models a chart of accounts node.
type Account struct {
	ID           int64       `json:"id"`
	FiscalYearID int64       `json:"fiscal_year_id"`
	Code         string      `json:"code"`
	Title        string      `json:"title"`
	Level        int         `json:"level"`
	ParentID     *int64      `json:"parent_id"`
	Type         AccountType `json:"account_type"`
	SortOrder    int         `json:"sort_order"`
	IsSystem     bool        `json:"is_system"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// References counts rows that pin an account.
type References struct {
	JournalLines int64
	CashAccounts int64
	Mappings     int64
}

func (r References) Total() int64 {
	return r.JournalLines + r.CashAccounts + r.Mappings
}
