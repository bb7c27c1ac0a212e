package cashaccounts

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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]CashAccount, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (CashAccount, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (CashAccount, error) {
	if err := in.Validate(); err != nil {
		return CashAccount{}, err
	}
	acc := CashAccount{IsActive: true}
	in.apply(&acc)
	var created CashAccount
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkChartAccount(ctx, tx, acc.ChartAccountID); err != nil {
			return err
		}
		var err error
		created, err = tx.Insert(ctx, acc)
		return err
	})
	if err != nil {
		return CashAccount{}, err
	}
	s.record(ctx, "cash_account.create", created.ID, map[string]any{"code": created.Code})
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (CashAccount, error) {
	if err := in.Validate(); err != nil {
		return CashAccount{}, err
	}
	var updated CashAccount
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		acc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		in.apply(&acc)
		if err := checkChartAccount(ctx, tx, acc.ChartAccountID); err != nil {
			return err
		}
		if err := tx.Update(ctx, acc); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		return CashAccount{}, err
	}
	s.record(ctx, "cash_account.update", id, nil)
	return updated, nil
}

// Delete refuses while any voucher or cheque references the account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		refs, err := tx.CountReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return shared.ErrCashAccountReferenced
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "cash_account.delete", id, nil)
	return nil
}

func checkChartAccount(ctx context.Context, tx TxRepository, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := tx.ChartAccountExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: chart account %d does not exist", internalShared.ErrValidation, *id)
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
		Entity:   "cash_account",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
