package cashaccounts

import "time"

// Type enumerates cash account kinds.
type Type string

const (
	TypeBank  Type = "bank"
	TypeCash  Type = "cash"
	TypePetty Type = "petty"
)

func (t Type) Valid() bool {
	return t == TypeBank || t == TypeCash || t == TypePetty
}

// CashAccount is a bank, till or petty cash box.
type CashAccount struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           Type      `json:"type"`
	Code           string    `json:"code"`
	BankName       string    `json:"bank_name,omitempty"`
	AccountNo      string    `json:"account_no,omitempty"`
	CardNo         string    `json:"card_no,omitempty"`
	IBAN           string    `json:"iban,omitempty"`
	ChartAccountID *int64    `json:"chart_account_id"`
	IsActive       bool      `json:"is_active"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
