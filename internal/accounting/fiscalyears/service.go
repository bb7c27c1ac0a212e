package fiscalyears

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// AuditPort records business events after commit.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service implements the fiscal year registry.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the registry service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (FiscalYear, error) {
	return s.repo.Get(ctx, id)
}

// GetActive returns the single active year or ErrNoActiveFiscalYear.
func (s *Service) GetActive(ctx context.Context) (FiscalYear, error) {
	return s.repo.GetActive(ctx)
}

// Resolve returns year id, or the active year when id is zero.
func (s *Service) Resolve(ctx context.Context, id int64) (FiscalYear, error) {
	if id == 0 {
		return s.repo.GetActive(ctx)
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new year, optionally activating it in the same unit of work.
func (s *Service) Create(ctx context.Context, in CreateInput) (FiscalYear, error) {
	in.StartDate = shared.DateOnly(in.StartDate)
	in.EndDate = shared.DateOnly(in.EndDate)
	if err := in.Validate(); err != nil {
		return FiscalYear{}, err
	}
	var created FiscalYear
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.Insert(ctx, in)
		if err != nil {
			return err
		}
		if in.Activate {
			if err := tx.Activate(ctx, fy.ID); err != nil {
				return err
			}
			fy.IsActive = true
		}
		created = fy
		return nil
	})
	if err != nil {
		return FiscalYear{}, err
	}
	s.record(ctx, "fiscal_year.create", created.ID, map[string]any{"name": created.Name, "active": created.IsActive})
	return created, nil
}

// Update applies the non-nil fields of in. New bounds must keep every
// journal entry, invoice and voucher of the year inside it.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (FiscalYear, error) {
	var updated FiscalYear
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			fy.Name = *in.Name
		}
		if in.StartDate != nil {
			fy.StartDate = shared.DateOnly(*in.StartDate)
		}
		if in.EndDate != nil {
			fy.EndDate = shared.DateOnly(*in.EndDate)
		}
		check := CreateInput{Name: fy.Name, StartDate: fy.StartDate, EndDate: fy.EndDate}
		if err := check.Validate(); err != nil {
			return err
		}
		if in.StartDate != nil || in.EndDate != nil {
			span, err := tx.DocumentSpan(ctx, id)
			if err != nil {
				return err
			}
			if !span.Covers(fy.StartDate, fy.EndDate) {
				return fmt.Errorf("%w: documents dated %s to %s", shared.ErrRangeExcludesDocuments,
					span.First.Format("2006-01-02"), span.Last.Format("2006-01-02"))
			}
		}
		if err := tx.Update(ctx, fy); err != nil {
			return err
		}
		if in.IsActive != nil && *in.IsActive != fy.IsActive {
			if *in.IsActive {
				err = tx.Activate(ctx, fy.ID)
			} else {
				err = tx.Deactivate(ctx, fy.ID)
			}
			if err != nil {
				return err
			}
			fy.IsActive = *in.IsActive
		}
		updated = fy
		return nil
	})
	if err != nil {
		return FiscalYear{}, err
	}
	s.record(ctx, "fiscal_year.update", id, map[string]any{"name": updated.Name, "active": updated.IsActive})
	return updated, nil
}

// SetActive makes id the only active year.
func (s *Service) SetActive(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.Activate(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "fiscal_year.activate", id, nil)
	return nil
}

// Delete removes a year without dependent documents.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		deps, err := tx.Dependents(ctx, id)
		if err != nil {
			return err
		}
		if deps.Total() > 0 {
			return fmt.Errorf("%w: %d journal entries, %d invoices, %d vouchers, %d accounts",
				shared.ErrFiscalYearReferenced, deps.JournalEntries, deps.Invoices, deps.Vouchers, deps.Accounts)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "fiscal_year.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "fiscal_year",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
