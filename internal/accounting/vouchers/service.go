package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

type Service struct {
	repo     Repository
	audit    AuditPort
	observer journals.PostingObserver
	now      func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) WithObserver(o journals.PostingObserver) {
	s.observer = o
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Voucher, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Voucher, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a draft voucher with the next voucher number of its year.
func (s *Service) Create(ctx context.Context, in Input) (Voucher, error) {
	if err := in.Validate(); err != nil {
		return Voucher{}, err
	}
	var created Voucher
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.Ledger().FiscalYear(ctx, in.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, fy, in, true); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, fy.ID)
		if err != nil {
			return err
		}
		v := Voucher{FiscalYearID: fy.ID, VoucherNo: number, Status: StatusDraft, CreatedBy: internalShared.ActorFromContext(ctx)}
		in.apply(&v)
		created, err = tx.Insert(ctx, v)
		return err
	})
	if err != nil {
		return Voucher{}, err
	}
	s.record(ctx, "voucher.create", created.ID, map[string]any{"voucher_no": created.VoucherNo, "type": created.Type})
	return created, nil
}

// Update replaces a draft voucher's fields. The fiscal year and number stay.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Voucher, error) {
	if err := in.Validate(); err != nil {
		return Voucher{}, err
	}
	var updated Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("voucher %d: %w", id, shared.ErrNotDraft)
		}
		if in.FiscalYearID != 0 && in.FiscalYearID != current.FiscalYearID {
			return fmt.Errorf("%w: fiscal year of a voucher cannot change", internalShared.ErrValidation)
		}
		fy, err := tx.Ledger().FiscalYear(ctx, current.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, fy, in, true); err != nil {
			return err
		}
		in.apply(&current)
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	s.record(ctx, "voucher.update", id, nil)
	return updated, nil
}

// Delete removes a draft voucher.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("voucher %d: %w", id, shared.ErrNotDraft)
		}
		ok, err := tx.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("voucher %d: %w", id, shared.ErrNotDraft)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "voucher.delete", id, nil)
	return nil
}

// Post emits the voucher's journal entry, links it and flips the status in
// one unit of work.
func (s *Service) Post(ctx context.Context, id int64) (Voucher, error) {
	var posted Voucher
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(v.Status, StatusPosted); err != nil {
			return fmt.Errorf("voucher %d: %w", id, err)
		}
		fy, err := tx.Ledger().FiscalYear(ctx, v.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, fy, inputOf(v), false); err != nil {
			return err
		}
		ledger, err := resolveLedger(ctx, tx, v)
		if err != nil {
			return err
		}
		at := s.now()
		entry, err := journals.CreatePosted(ctx, tx.Ledger(), journals.EntryInput{
			FiscalYearID:  v.FiscalYearID,
			VoucherDate:   v.VoucherDate,
			Description:   fmt.Sprintf("%s voucher %d", v.Type, v.VoucherNo),
			ReferenceType: shared.RefVoucher,
			ReferenceID:   v.ID,
			SourceKey:     shared.SourceKey(shared.RefVoucher, v.ID),
			CreatedBy:     internalShared.ActorFromContext(ctx),
			Lines:         Lines(v, ledger),
		}, at)
		if err != nil {
			return err
		}
		ok, err := tx.MarkPosted(ctx, v.ID, entry.ID, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("voucher %d: %w", id, shared.ErrInvalidStatus)
		}
		v.Status = StatusPosted
		v.JournalEntryID = &entry.ID
		v.PostedAt = &at
		posted = v
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	if s.observer != nil {
		s.observer.ObservePosting(shared.RefVoucher)
	}
	s.record(ctx, "voucher.post", id, map[string]any{"journal_entry_id": *posted.JournalEntryID})
	return posted, nil
}

// checkReferences verifies every id on the voucher. Inactive cash accounts
// are refused only for new or edited drafts.
func checkReferences(ctx context.Context, tx TxRepository, fy fiscalyears.FiscalYear, in Input, requireActive bool) error {
	if !shared.WithinRange(in.VoucherDate, fy.StartDate, fy.EndDate) {
		return fmt.Errorf("%w: %s not in %s", shared.ErrDateOutOfRange, in.VoucherDate.Format("2006-01-02"), fy.Name)
	}
	ids := []int64{in.CashAccountID}
	if in.TransferToCashAccountID != nil {
		ids = append(ids, *in.TransferToCashAccountID)
	}
	for _, id := range ids {
		acc, err := tx.CashAccount(ctx, id)
		if err != nil {
			return err
		}
		if requireActive && !acc.IsActive {
			return fmt.Errorf("%w: %s", shared.ErrCashAccountInactive, acc.Code)
		}
	}
	if in.PersonID != nil {
		ok, err := tx.PersonExists(ctx, *in.PersonID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("person %d: %w", *in.PersonID, shared.ErrPersonNotFound)
		}
	}
	if in.InvoiceID != nil {
		ok, err := tx.InvoiceExists(ctx, *in.InvoiceID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: invoice %d does not exist", internalShared.ErrValidation, *in.InvoiceID)
		}
	}
	if in.CounterAccountID != nil {
		years, err := tx.Ledger().AccountYears(ctx, []int64{*in.CounterAccountID})
		if err != nil {
			return err
		}
		year, ok := years[*in.CounterAccountID]
		if !ok {
			return fmt.Errorf("%w: counter account %d does not exist", internalShared.ErrValidation, *in.CounterAccountID)
		}
		if year != fy.ID {
			return fmt.Errorf("%w: counter account %d", shared.ErrAccountOutsideYear, *in.CounterAccountID)
		}
	}
	return nil
}

func resolveLedger(ctx context.Context, tx TxRepository, v Voucher) (Ledger, error) {
	var (
		l   Ledger
		err error
	)
	if l.Cash, err = chartAccount(ctx, tx, v.CashAccountID); err != nil {
		return Ledger{}, err
	}
	switch v.Type {
	case TypeTransfer:
		if l.Destination, err = chartAccount(ctx, tx, *v.TransferToCashAccountID); err != nil {
			return Ledger{}, err
		}
	default:
		switch {
		case v.CounterAccountID != nil:
			l.Counter = *v.CounterAccountID
		case v.PersonID != nil:
			key := mappings.PersonReceivable
			if v.Type == TypePayment {
				key = mappings.PersonPayable
			}
			if l.Counter, err = tx.Ledger().ResolveMapping(ctx, v.FiscalYearID, key); err != nil {
				return Ledger{}, err
			}
		default:
			return Ledger{}, shared.ErrCounterAccountRequired
		}
	}
	if v.BankFee.IsPositive() {
		if l.BankFee, err = tx.Ledger().ResolveMapping(ctx, v.FiscalYearID, mappings.VoucherBankFee); err != nil {
			return Ledger{}, err
		}
	}
	return l, nil
}

func chartAccount(ctx context.Context, tx TxRepository, cashAccountID int64) (int64, error) {
	acc, err := tx.CashAccount(ctx, cashAccountID)
	if err != nil {
		return 0, err
	}
	if acc.ChartAccountID == nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrCashAccountUnmapped, acc.Code)
	}
	return *acc.ChartAccountID, nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "receipt_voucher",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
