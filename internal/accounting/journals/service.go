package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// PostingObserver is notified after a posting commits.
type PostingObserver interface {
	ObservePosting(document string)
}

type Service struct {
	repo     Repository
	audit    AuditPort
	observer PostingObserver
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

func (s *Service) WithObserver(o PostingObserver) {
	s.observer = o
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, filter)
}

// Get returns the entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = s.repo.Lines(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (s *Service) Lines(ctx context.Context, id int64) ([]JournalLine, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Lines(ctx, id)
}

// Create stores a new draft entry.
func (s *Service) Create(ctx context.Context, in EntryInput) (JournalEntry, error) {
	if err := ValidateLines(in.Lines); err != nil {
		return JournalEntry{}, err
	}
	in.CreatedBy = internalShared.ActorFromContext(ctx)
	var entry JournalEntry
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = CreateDraft(ctx, tx, in)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, "journal.create", entry.ID, map[string]any{"voucher_no": entry.VoucherNo})
	return entry, nil
}

// Update replaces the header and lines of a draft entry wholesale.
func (s *Service) Update(ctx context.Context, id int64, in EntryInput) (JournalEntry, error) {
	if err := requireEntryID(id); err != nil {
		return JournalEntry{}, err
	}
	if err := ValidateLines(in.Lines); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("journal %d: %w", id, shared.ErrNotDraft)
		}
		if in.FiscalYearID != 0 && in.FiscalYearID != current.FiscalYearID {
			return fmt.Errorf("%w: fiscal year of an entry cannot change", internalShared.ErrValidation)
		}
		fy, err := tx.FiscalYear(ctx, current.FiscalYearID)
		if err != nil {
			return err
		}
		if err := checkPlacement(ctx, tx, fy, in.VoucherDate, in.Lines); err != nil {
			return err
		}
		current.VoucherDate = shared.DateOnly(in.VoucherDate)
		current.Description = in.Description
		if err := tx.UpdateHeader(ctx, current); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		current.Lines, err = tx.InsertLines(ctx, id, in.Lines)
		if err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, "journal.update", id, map[string]any{"lines": len(entry.Lines)})
	return entry, nil
}

// Post transitions a draft to posted exactly once.
func (s *Service) Post(ctx context.Context, id int64) (JournalEntry, error) {
	if err := requireEntryID(id); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = Post(ctx, tx, id, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.observer != nil {
		s.observer.ObservePosting("journal")
	}
	s.record(ctx, "journal.post", id, map[string]any{"voucher_no": entry.VoucherNo})
	return entry, nil
}

// Delete removes a draft entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("journal %d: %w", id, shared.ErrNotDraft)
		}
		ok, err := tx.DeleteDraft(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("journal %d: %w", id, shared.ErrNotDraft)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "journal.delete", id, nil)
	return nil
}

// Reverse posts a mirror entry of a posted one; the original is untouched.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (JournalEntry, error) {
	if err := requireEntryID(in.EntryID); err != nil {
		return JournalEntry{}, err
	}
	actor := internalShared.ActorFromContext(ctx)
	var reversal JournalEntry
	err := s.repo.WithCreateTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		reversal, err = Reversal(ctx, tx, in, actor, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.observer != nil {
		s.observer.ObservePosting(shared.RefJournalReversal)
	}
	s.record(ctx, "journal.reverse", in.EntryID, map[string]any{
		"reversal_id":         reversal.ID,
		"reversal_voucher_no": reversal.VoucherNo,
	})
	return reversal, nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "journal_entry",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
