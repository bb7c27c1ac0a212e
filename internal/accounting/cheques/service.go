package cheques

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

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Cheque, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Cheque, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a cheque in the safe.
func (s *Service) Create(ctx context.Context, in Input) (Cheque, error) {
	if err := in.Validate(); err != nil {
		return Cheque{}, err
	}
	var created Cheque
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		c := Cheque{Status: StatusInSafe, CreatedBy: internalShared.ActorFromContext(ctx)}
		in.apply(&c)
		var err error
		created, err = tx.Insert(ctx, c)
		return err
	})
	if err != nil {
		return Cheque{}, err
	}
	s.record(ctx, "check.create", created.ID, map[string]any{"check_no": created.CheckNo, "type": created.Type})
	return created, nil
}

// Update edits a cheque that has not left the safe.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Cheque, error) {
	if err := in.Validate(); err != nil {
		return Cheque{}, err
	}
	var updated Cheque
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusInSafe {
			return fmt.Errorf("cheque %d is %s: %w", id, current.Status, shared.ErrNotDraft)
		}
		if err := checkReferences(ctx, tx, in); err != nil {
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
		return Cheque{}, err
	}
	s.record(ctx, "check.update", id, nil)
	return updated, nil
}

// Delete removes a cheque that has not left the safe.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusInSafe {
			return fmt.Errorf("cheque %d is %s: %w", id, current.Status, shared.ErrNotDraft)
		}
		ok, err := tx.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cheque %d: %w", id, shared.ErrNotDraft)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "check.delete", id, nil)
	return nil
}

// SetStatus records a cheque leaving the safe. Collected, returned and spent
// are final.
func (s *Service) SetStatus(ctx context.Context, id int64, to Status) (Cheque, error) {
	if !to.Valid() {
		return Cheque{}, fmt.Errorf("%w: unknown cheque status %q", internalShared.ErrValidation, to)
	}
	var (
		changed Cheque
		from    Status
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(c.Status, to); err != nil {
			return fmt.Errorf("cheque %d %s -> %s: %w", id, c.Status, to, err)
		}
		at := s.now()
		ok, err := tx.SetStatus(ctx, id, c.Status, to, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cheque %d: %w", id, shared.ErrInvalidStatus)
		}
		from = c.Status
		c.Status = to
		c.StatusChangedAt = &at
		changed = c
		return nil
	})
	if err != nil {
		return Cheque{}, err
	}
	s.record(ctx, "check.status", id, map[string]any{"from": from, "to": to})
	return changed, nil
}

func checkReferences(ctx context.Context, tx TxRepository, in Input) error {
	acc, err := tx.CashAccount(ctx, in.CashAccountID)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return fmt.Errorf("%w: %s", shared.ErrCashAccountInactive, acc.Code)
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
	if in.ReceiptVoucherID != nil {
		ok, err := tx.VoucherExists(ctx, *in.ReceiptVoucherID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: voucher %d does not exist", internalShared.ErrValidation, *in.ReceiptVoucherID)
		}
	}
	if in.JournalEntryID != nil {
		ok, err := tx.PostedEntryExists(ctx, *in.JournalEntryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: journal entry %d is not posted", internalShared.ErrValidation, *in.JournalEntryID)
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
		Entity:   "check",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
