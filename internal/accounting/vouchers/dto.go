package vouchers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Input carries the editable fields of a voucher. A zero FiscalYearID
// resolves to the active fiscal year.
type Input struct {
	FiscalYearID            int64
	VoucherDate             time.Time
	Type                    Type
	CashAccountID           int64
	TransferToCashAccountID *int64
	PersonID                *int64
	CounterAccountID        *int64
	Amount                  decimal.Decimal
	BankFee                 decimal.Decimal
	Description             string
	InvoiceID               *int64
	ProjectID               *int64
}

// Validate checks the fields that need no lookups.
func (in Input) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown voucher type %q", internalShared.ErrValidation, in.Type)
	}
	if in.VoucherDate.IsZero() {
		return fmt.Errorf("%w: voucher date required", internalShared.ErrValidation)
	}
	if in.CashAccountID <= 0 {
		return fmt.Errorf("%w: cash account required", internalShared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return shared.ErrNonPositiveAmount
	}
	if in.BankFee.IsNegative() {
		return fmt.Errorf("%w: bank fee cannot be negative", internalShared.ErrValidation)
	}
	if !in.Amount.Equal(shared.Round2(in.Amount)) || !in.BankFee.Equal(shared.Round2(in.BankFee)) {
		return fmt.Errorf("%w: amounts carry at most two decimals", internalShared.ErrValidation)
	}
	switch in.Type {
	case TypeTransfer:
		if in.TransferToCashAccountID == nil || *in.TransferToCashAccountID == in.CashAccountID {
			return shared.ErrTransferTarget
		}
	default:
		if in.TransferToCashAccountID != nil {
			return fmt.Errorf("%w: only transfers carry a destination", shared.ErrTransferTarget)
		}
		if in.CounterAccountID == nil && in.PersonID == nil {
			return shared.ErrCounterAccountRequired
		}
	}
	return nil
}

func (in Input) apply(v *Voucher) {
	v.VoucherDate = shared.DateOnly(in.VoucherDate)
	v.Type = in.Type
	v.CashAccountID = in.CashAccountID
	v.TransferToCashAccountID = in.TransferToCashAccountID
	v.PersonID = in.PersonID
	v.CounterAccountID = in.CounterAccountID
	v.Amount = in.Amount
	v.BankFee = in.BankFee
	v.Description = in.Description
	v.InvoiceID = in.InvoiceID
	v.ProjectID = in.ProjectID
	if v.Type == TypeTransfer {
		v.PersonID = nil
		v.CounterAccountID = nil
	}
}

func inputOf(v Voucher) Input {
	return Input{
		FiscalYearID:            v.FiscalYearID,
		VoucherDate:             v.VoucherDate,
		Type:                    v.Type,
		CashAccountID:           v.CashAccountID,
		TransferToCashAccountID: v.TransferToCashAccountID,
		PersonID:                v.PersonID,
		CounterAccountID:        v.CounterAccountID,
		Amount:                  v.Amount,
		BankFee:                 v.BankFee,
		Description:             v.Description,
		InvoiceID:               v.InvoiceID,
		ProjectID:               v.ProjectID,
	}
}

type voucherRequest struct {
	FiscalYearID            int64           `json:"fiscal_year_id" validate:"gte=0"`
	VoucherDate             string          `json:"voucher_date" validate:"required,datetime=2006-01-02"`
	Type                    string          `json:"type" validate:"required,oneof=receipt payment transfer"`
	CashAccountID           int64           `json:"cash_account_id" validate:"required,gt=0"`
	TransferToCashAccountID *int64          `json:"transfer_to_cash_account_id" validate:"omitempty,gt=0"`
	PersonID                *int64          `json:"person_id" validate:"omitempty,gt=0"`
	CounterAccountID        *int64          `json:"counter_account_id" validate:"omitempty,gt=0"`
	Amount                  decimal.Decimal `json:"amount"`
	BankFee                 decimal.Decimal `json:"bank_fee"`
	Description             string          `json:"description" validate:"max=1000"`
	InvoiceID               *int64          `json:"invoice_id" validate:"omitempty,gt=0"`
	ProjectID               *int64          `json:"project_id" validate:"omitempty,gt=0"`
}

func (r voucherRequest) toInput() Input {
	date, _ := time.Parse(httpx.DateLayout, r.VoucherDate)
	return Input{
		FiscalYearID:            r.FiscalYearID,
		VoucherDate:             date,
		Type:                    Type(r.Type),
		CashAccountID:           r.CashAccountID,
		TransferToCashAccountID: r.TransferToCashAccountID,
		PersonID:                r.PersonID,
		CounterAccountID:        r.CounterAccountID,
		Amount:                  r.Amount,
		BankFee:                 r.BankFee,
		Description:             r.Description,
		InvoiceID:               r.InvoiceID,
		ProjectID:               r.ProjectID,
	}
}
