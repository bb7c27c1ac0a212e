package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// CreateDraft validates in and stores it as a draft entry with a freshly
// allocated voucher number. It runs inside the caller's transaction.
func CreateDraft(ctx context.Context, tx TxRepository, in EntryInput) (JournalEntry, error) {
	if err := ValidateLines(in.Lines); err != nil {
		return JournalEntry{}, err
	}
	fy, err := tx.FiscalYear(ctx, in.FiscalYearID)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := checkPlacement(ctx, tx, fy, in.VoucherDate, in.Lines); err != nil {
		return JournalEntry{}, err
	}
	number, err := tx.NextNumber(ctx, fy.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry := JournalEntry{
		FiscalYearID: fy.ID,
		VoucherNo:    number,
		VoucherDate:  shared.DateOnly(in.VoucherDate),
		Description:  in.Description,
		Status:       StatusDraft,
		CreatedBy:    in.CreatedBy,
	}
	if in.ReferenceType != "" {
		refType, refID := in.ReferenceType, in.ReferenceID
		entry.ReferenceType = &refType
		entry.ReferenceID = &refID
	}
	if in.SourceKey != uuid.Nil {
		key := in.SourceKey
		entry.SourceKey = &key
	}
	created, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return JournalEntry{}, err
	}
	created.Lines, err = tx.InsertLines(ctx, created.ID, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	return created, nil
}

// Post locks the entry, re-validates its stored lines and flips it to posted.
func Post(ctx context.Context, tx TxRepository, id int64, at time.Time) (JournalEntry, error) {
	entry, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := transitions.Check(entry.Status, StatusPosted); err != nil {
		return JournalEntry{}, fmt.Errorf("journal %d: %w", id, err)
	}
	lines, err := tx.Lines(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := ValidateLines(linesFromStored(lines)); err != nil {
		return JournalEntry{}, err
	}
	ok, err := tx.MarkPosted(ctx, id, at)
	if err != nil {
		return JournalEntry{}, err
	}
	if !ok {
		return JournalEntry{}, fmt.Errorf("journal %d: %w", id, shared.ErrInvalidStatus)
	}
	entry.Status = StatusPosted
	entry.PostedAt = &at
	entry.Lines = lines
	return entry, nil
}

// CreatePosted creates and posts in one step; documents use it to emit
// their single journal entry within their own unit of work.
func CreatePosted(ctx context.Context, tx TxRepository, in EntryInput, at time.Time) (JournalEntry, error) {
	draft, err := CreateDraft(ctx, tx, in)
	if err != nil {
		return JournalEntry{}, err
	}
	return Post(ctx, tx, draft.ID, at)
}

// Reversal builds the posted mirror of a posted entry.
func Reversal(ctx context.Context, tx TxRepository, in ReverseInput, actor int64, at time.Time) (JournalEntry, error) {
	original, err := tx.GetForUpdate(ctx, in.EntryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if original.Status != StatusPosted {
		return JournalEntry{}, fmt.Errorf("journal %d: %w", in.EntryID, shared.ErrInvalidStatus)
	}
	lines, err := tx.Lines(ctx, original.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	date := original.VoucherDate
	if in.TargetDate != nil {
		date = *in.TargetDate
	}
	memo := in.Memo
	if memo == "" {
		memo = fmt.Sprintf("Reversal of journal %d", original.VoucherNo)
	}
	return CreatePosted(ctx, tx, EntryInput{
		FiscalYearID:  original.FiscalYearID,
		VoucherDate:   date,
		Description:   memo,
		ReferenceType: shared.RefJournalReversal,
		ReferenceID:   original.ID,
		SourceKey:     shared.SourceKey(shared.RefJournalReversal, original.ID),
		CreatedBy:     actor,
		Lines:         ReverseLines(lines),
	}, at)
}

// ReverseLines swaps debit and credit of every line.
func ReverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineInput{AccountID: l.AccountID, Debit: l.Credit, Credit: l.Debit, Description: l.Description})
	}
	return out
}

func checkPlacement(ctx context.Context, tx TxRepository, fy fiscalyears.FiscalYear, date time.Time, lines []LineInput) error {
	if date.IsZero() {
		return fmt.Errorf("%w: voucher date required", internalShared.ErrValidation)
	}
	if !shared.WithinRange(date, fy.StartDate, fy.EndDate) {
		return fmt.Errorf("%w: %s not in %s", shared.ErrDateOutOfRange, date.Format("2006-01-02"), fy.Name)
	}
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	years, err := tx.AccountYears(ctx, ids)
	if err != nil {
		return err
	}
	for idx, l := range lines {
		year, ok := years[l.AccountID]
		if !ok {
			return fmt.Errorf("%w: line %d account %d does not exist", internalShared.ErrValidation, idx+1, l.AccountID)
		}
		if year != fy.ID {
			return fmt.Errorf("%w: line %d account %d", shared.ErrAccountOutsideYear, idx+1, l.AccountID)
		}
	}
	return nil
}
