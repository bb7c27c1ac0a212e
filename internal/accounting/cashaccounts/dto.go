package cashaccounts

import (
	"fmt"
	"strings"

	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Input carries every editable field; Create and Update both take it.
type Input struct {
	Name           string `json:"name" validate:"required,max=120"`
	Type           Type   `json:"type" validate:"required,oneof=bank cash petty"`
	Code           string `json:"code" validate:"required,max=32"`
	BankName       string `json:"bank_name" validate:"max=120"`
	AccountNo      string `json:"account_no" validate:"max=64"`
	CardNo         string `json:"card_no" validate:"omitempty,numeric,min=12,max=19"`
	IBAN           string `json:"iban" validate:"omitempty,alphanum,min=15,max=34"`
	ChartAccountID *int64 `json:"chart_account_id,omitempty" validate:"omitempty,gt=0"`
	IsActive       *bool  `json:"is_active,omitempty"`
	SortOrder      int    `json:"sort_order"`
}

// Validate enforces that bank-only fields are left empty for cash and petty accounts.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("%w: name and code required", internalShared.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown cash account type %q", internalShared.ErrValidation, in.Type)
	}
	if in.Type != TypeBank && (in.BankName != "" || in.AccountNo != "" || in.CardNo != "" || in.IBAN != "") {
		return fmt.Errorf("%w: bank details only apply to bank accounts", internalShared.ErrValidation)
	}
	return nil
}

func (in Input) apply(acc *CashAccount) {
	acc.Name = strings.TrimSpace(in.Name)
	acc.Type = in.Type
	acc.Code = strings.TrimSpace(in.Code)
	acc.BankName = in.BankName
	acc.AccountNo = in.AccountNo
	acc.CardNo = in.CardNo
	acc.IBAN = strings.ToUpper(in.IBAN)
	acc.ChartAccountID = in.ChartAccountID
	acc.SortOrder = in.SortOrder
	if in.IsActive != nil {
		acc.IsActive = *in.IsActive
	}
}

// ListFilter narrows List results.
type ListFilter struct {
	ActiveOnly bool
	Type       Type
}
