package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// LineInput describes a journal line for create/update requests.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// EntryInput groups fields required to create a journal entry. A zero
// FiscalYearID resolves to the active fiscal year.
type EntryInput struct {
	FiscalYearID  int64
	VoucherDate   time.Time
	Description   string
	ReferenceType string
	ReferenceID   int64
	SourceKey     uuid.UUID
	CreatedBy     int64
	Lines         []LineInput
}

// ValidateLines checks the line set: not empty, one positive side per line,
// and Σdebit == Σcredit compared exactly.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return shared.ErrNoLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range lines {
		if line.AccountID <= 0 {
			return fmt.Errorf("%w: line %d missing account", shared.ErrInvalidLine, idx+1)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d negative amount", shared.ErrInvalidLine, idx+1)
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return fmt.Errorf("%w: line %d", shared.ErrInvalidLine, idx+1)
		}
		if !line.Debit.Equal(shared.Round2(line.Debit)) || !line.Credit.Equal(shared.Round2(line.Credit)) {
			return fmt.Errorf("%w: line %d has more than two decimals", shared.ErrInvalidLine, idx+1)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s credit %s", shared.ErrUnbalanced, debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

func linesFromStored(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description})
	}
	return out
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID    int64
	Memo       string
	TargetDate *time.Time
}

type lineRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" validate:"max=500"`
}

type entryRequest struct {
	FiscalYearID int64         `json:"fiscal_year_id" validate:"gte=0"`
	VoucherDate  string        `json:"voucher_date" validate:"required,datetime=2006-01-02"`
	Description  string        `json:"description" validate:"max=1000"`
	Lines        []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r entryRequest) toInput() EntryInput {
	date, _ := time.Parse(httpx.DateLayout, r.VoucherDate)
	in := EntryInput{FiscalYearID: r.FiscalYearID, VoucherDate: date, Description: r.Description}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, LineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description})
	}
	return in
}

type reverseRequest struct {
	Memo string `json:"memo" validate:"max=1000"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r reverseRequest) toInput(id int64) ReverseInput {
	in := ReverseInput{EntryID: id, Memo: r.Memo}
	if r.Date != "" {
		d, _ := time.Parse(httpx.DateLayout, r.Date)
		in.TargetDate = &d
	}
	return in
}

func requireEntryID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: entry id required", internalShared.ErrValidation)
	}
	return nil
}
