package cheques

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Input carries the editable fields of a cheque.
type Input struct {
	Type             Type
	CheckNo          string
	CheckDate        time.Time
	DueDate          time.Time
	Amount           decimal.Decimal
	CashAccountID    int64
	PersonID         *int64
	Description      string
	ReceiptVoucherID *int64
	// JournalEntryID optionally links the posted entry that booked the cheque.
	JournalEntryID *int64
}

func (in Input) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown cheque type %q", internalShared.ErrValidation, in.Type)
	}
	if strings.TrimSpace(in.CheckNo) == "" {
		return fmt.Errorf("%w: check number required", internalShared.ErrValidation)
	}
	if in.CheckDate.IsZero() || in.DueDate.IsZero() {
		return fmt.Errorf("%w: check and due dates required", internalShared.ErrValidation)
	}
	if in.CashAccountID <= 0 {
		return fmt.Errorf("%w: cash account required", internalShared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return shared.ErrNonPositiveAmount
	}
	if !in.Amount.Equal(shared.Round2(in.Amount)) {
		return fmt.Errorf("%w: amount carries at most two decimals", internalShared.ErrValidation)
	}
	return nil
}

func (in Input) apply(c *Cheque) {
	c.Type = in.Type
	c.CheckNo = strings.TrimSpace(in.CheckNo)
	c.CheckDate = shared.DateOnly(in.CheckDate)
	c.DueDate = shared.DateOnly(in.DueDate)
	c.Amount = in.Amount
	c.CashAccountID = in.CashAccountID
	c.PersonID = in.PersonID
	c.Description = in.Description
	c.ReceiptVoucherID = in.ReceiptVoucherID
	c.JournalEntryID = in.JournalEntryID
}

type chequeRequest struct {
	Type             string          `json:"type" validate:"required,oneof=receivable payable"`
	CheckNo          string          `json:"check_no" validate:"required,max=64"`
	CheckDate        string          `json:"check_date" validate:"required,datetime=2006-01-02"`
	DueDate          string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	Amount           decimal.Decimal `json:"amount"`
	CashAccountID    int64           `json:"cash_account_id" validate:"required,gt=0"`
	PersonID         *int64          `json:"person_id" validate:"omitempty,gt=0"`
	Description      string          `json:"description" validate:"max=1000"`
	ReceiptVoucherID *int64          `json:"receipt_voucher_id" validate:"omitempty,gt=0"`
	JournalEntryID   *int64          `json:"journal_entry_id" validate:"omitempty,gt=0"`
}

func (r chequeRequest) toInput() Input {
	checkDate, _ := time.Parse(httpx.DateLayout, r.CheckDate)
	dueDate, _ := time.Parse(httpx.DateLayout, r.DueDate)
	return Input{
		Type:             Type(r.Type),
		CheckNo:          r.CheckNo,
		CheckDate:        checkDate,
		DueDate:          dueDate,
		Amount:           r.Amount,
		CashAccountID:    r.CashAccountID,
		PersonID:         r.PersonID,
		Description:      r.Description,
		ReceiptVoucherID: r.ReceiptVoucherID,
		JournalEntryID:   r.JournalEntryID,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_safe collected returned spent"`
}
