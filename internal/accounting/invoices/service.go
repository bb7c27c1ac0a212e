package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	return s.repo.List(ctx, filter)
}

// Get returns the invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a draft invoice with the next number of its type.
func (s *Service) Create(ctx context.Context, in Input) (Invoice, error) {
	if len(in.Lines) == 0 {
		return Invoice{}, fmt.Errorf("%w: invoice requires lines", shared.ErrInvalidInvoiceLine)
	}
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	var created Invoice
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.Ledger().FiscalYear(ctx, in.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, fy, in); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, fy.ID, in.Type)
		if err != nil {
			return err
		}
		inv := Invoice{FiscalYearID: fy.ID, InvoiceNo: number, Status: StatusDraft, CreatedBy: internalShared.ActorFromContext(ctx)}
		in.apply(&inv)
		ComputeTotals(in.Lines, inv.charges()).applyTo(&inv)
		if created, err = tx.Insert(ctx, inv); err != nil {
			return err
		}
		created.Lines, err = tx.ReplaceLines(ctx, created.ID, priced(in.Lines))
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.create", created.ID, map[string]any{"invoice_no": created.InvoiceNo, "type": created.Type})
	return created, nil
}

// Update replaces the header of a draft invoice. Lines are replaced only when
// in.Lines is non-nil. The fiscal year and type stay fixed.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Invoice, error) {
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	var updated Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrNotDraft)
		}
		if in.FiscalYearID != 0 && in.FiscalYearID != current.FiscalYearID {
			return fmt.Errorf("%w: fiscal year of an invoice cannot change", internalShared.ErrValidation)
		}
		if in.Type != current.Type {
			return fmt.Errorf("%w: invoice type cannot change", internalShared.ErrValidation)
		}
		fy, err := tx.Ledger().FiscalYear(ctx, current.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, fy, in); err != nil {
			return err
		}
		in.apply(&current)
		if in.Lines != nil {
			if current.Lines, err = tx.ReplaceLines(ctx, id, priced(in.Lines)); err != nil {
				return err
			}
		} else if current.Lines, err = tx.Lines(ctx, id); err != nil {
			return err
		}
		ComputeTotals(inputsOf(current.Lines), current.charges()).applyTo(&current)
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.update", id, map[string]any{"lines_replaced": in.Lines != nil})
	return updated, nil
}

// Delete removes a draft invoice and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrNotDraft)
		}
		ok, err := tx.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrNotDraft)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "invoice.delete", id, nil)
	return nil
}

// Confirm recomputes the totals from the stored lines, emits the invoice's
// journal entry, links it and flips the status in one unit of work.
func (s *Service) Confirm(ctx context.Context, id int64) (Invoice, error) {
	var confirmed Invoice
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Type == TypeProforma {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrProformaNotPostable)
		}
		if err := transitions.Check(inv.Status, StatusConfirmed); err != nil {
			return fmt.Errorf("invoice %d: %w", id, err)
		}
		if inv.Lines, err = tx.Lines(ctx, id); err != nil {
			return err
		}
		if len(inv.Lines) == 0 {
			return fmt.Errorf("%w: invoice %d has no lines", shared.ErrInvalidInvoiceLine, id)
		}
		totals := ComputeTotals(inputsOf(inv.Lines), inv.charges())
		if !totals.Total.IsPositive() {
			return fmt.Errorf("%w: %s", shared.ErrNonPositiveTotal, totals.Total.StringFixed(2))
		}
		totals.applyTo(&inv)
		ledger, err := resolveLedger(ctx, tx.Ledger(), inv.FiscalYearID, inv.Type, totals)
		if err != nil {
			return err
		}
		at := s.now()
		entry, err := journals.CreatePosted(ctx, tx.Ledger(), journals.EntryInput{
			FiscalYearID:  inv.FiscalYearID,
			VoucherDate:   inv.InvoiceDate,
			Description:   fmt.Sprintf("%s invoice %d", inv.Type, inv.InvoiceNo),
			ReferenceType: shared.RefInvoice,
			ReferenceID:   inv.ID,
			SourceKey:     shared.SourceKey(shared.RefInvoice, inv.ID),
			CreatedBy:     internalShared.ActorFromContext(ctx),
			Lines:         Lines(inv, totals, ledger),
		}, at)
		if err != nil {
			return err
		}
		inv.JournalEntryID = &entry.ID
		ok, err := tx.MarkConfirmed(ctx, inv, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrInvalidStatus)
		}
		inv.Status = StatusConfirmed
		inv.ConfirmedAt = &at
		confirmed = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	if s.observer != nil {
		s.observer.ObservePosting(shared.RefInvoice)
	}
	s.record(ctx, "invoice.confirm", id, map[string]any{"journal_entry_id": *confirmed.JournalEntryID, "total": confirmed.Total.StringFixed(2)})
	return confirmed, nil
}

// Return books a confirmed invoice back with the mirror of its entry. A nil
// date reuses the invoice date.
func (s *Service) Return(ctx context.Context, id int64, date *time.Time) (Invoice, error) {
	var returned Invoice
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(inv.Status, StatusReturned); err != nil {
			return fmt.Errorf("invoice %d: %w", id, err)
		}
		if inv.JournalEntryID == nil {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrInvalidStatus)
		}
		lines, err := tx.Ledger().Lines(ctx, *inv.JournalEntryID)
		if err != nil {
			return err
		}
		on := inv.InvoiceDate
		if date != nil {
			on = *date
		}
		at := s.now()
		entry, err := journals.CreatePosted(ctx, tx.Ledger(), journals.EntryInput{
			FiscalYearID:  inv.FiscalYearID,
			VoucherDate:   on,
			Description:   fmt.Sprintf("Return of %s invoice %d", inv.Type, inv.InvoiceNo),
			ReferenceType: shared.RefInvoiceReturn,
			ReferenceID:   inv.ID,
			SourceKey:     shared.SourceKey(shared.RefInvoiceReturn, inv.ID),
			CreatedBy:     internalShared.ActorFromContext(ctx),
			Lines:         journals.ReverseLines(lines),
		}, at)
		if err != nil {
			return err
		}
		ok, err := tx.MarkReturned(ctx, id, entry.ID, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("invoice %d: %w", id, shared.ErrInvalidStatus)
		}
		inv.Status = StatusReturned
		inv.ReturnEntryID = &entry.ID
		returned = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	if s.observer != nil {
		s.observer.ObservePosting(shared.RefInvoiceReturn)
	}
	s.record(ctx, "invoice.return", id, map[string]any{"return_entry_id": *returned.ReturnEntryID})
	return returned, nil
}

// ConvertProforma copies a proforma into a new draft sales invoice.
func (s *Service) ConvertProforma(ctx context.Context, id int64) (Invoice, error) {
	var created Invoice
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		source, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if source.Type != TypeProforma {
			return fmt.Errorf("invoice %d is %s: %w", id, source.Type, shared.ErrNotProforma)
		}
		lines, err := tx.Lines(ctx, id)
		if err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, source.FiscalYearID, TypeSales)
		if err != nil {
			return err
		}
		inv := source
		inv.ID = 0
		inv.InvoiceNo = number
		inv.Type = TypeSales
		inv.Status = StatusDraft
		inv.JournalEntryID = nil
		inv.ReturnEntryID = nil
		inv.ConfirmedAt = nil
		inv.CreatedBy = internalShared.ActorFromContext(ctx)
		ComputeTotals(inputsOf(lines), inv.charges()).applyTo(&inv)
		if created, err = tx.Insert(ctx, inv); err != nil {
			return err
		}
		created.Lines, err = tx.ReplaceLines(ctx, created.ID, priced(inputsOf(lines)))
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, "invoice.convert", created.ID, map[string]any{"proforma_id": id, "invoice_no": created.InvoiceNo})
	return created, nil
}

func checkReferences(ctx context.Context, tx TxRepository, fy fiscalyears.FiscalYear, in Input) error {
	if !shared.WithinRange(in.InvoiceDate, fy.StartDate, fy.EndDate) {
		return fmt.Errorf("%w: %s not in %s", shared.ErrDateOutOfRange, in.InvoiceDate.Format("2006-01-02"), fy.Name)
	}
	ok, err := tx.PersonExists(ctx, in.PersonID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("person %d: %w", in.PersonID, shared.ErrPersonNotFound)
	}
	for idx, l := range in.Lines {
		ok, err := tx.ProductExists(ctx, l.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("line %d product %d: %w", idx+1, l.ProductID, shared.ErrProductNotFound)
		}
		if l.UnitID == nil {
			continue
		}
		ok, err = tx.UnitExists(ctx, *l.UnitID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("line %d unit %d: %w", idx+1, *l.UnitID, shared.ErrUnitNotFound)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "invoice",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
