package accounts

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

// Tree returns the fiscal year's chart as an ordered forest.
func (s *Service) Tree(ctx context.Context, fiscalYearID int64) ([]*Node, error) {
	list, err := s.repo.List(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

func (s *Service) List(ctx context.Context, fiscalYearID int64) ([]Account, error) {
	return s.repo.List(ctx, fiscalYearID)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts an account; children inherit the parent's type when none is given.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.FiscalYearExists(ctx, in.FiscalYearID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrFiscalYearNotFound
		}
		acc := Account{
			FiscalYearID: in.FiscalYearID,
			Code:         in.Code,
			Title:        in.Title,
			Level:        1,
			Type:         in.Type,
			SortOrder:    in.SortOrder,
		}
		if in.ParentID != nil {
			parent, err := tx.Get(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.FiscalYearID != in.FiscalYearID {
				return shared.ErrAccountOutsideYear
			}
			acc.ParentID = &parent.ID
			acc.Level = parent.Level + 1
			if acc.Type == "" {
				acc.Type = parent.Type
			}
		}
		if !acc.Type.Valid() {
			return fmt.Errorf("%w: account type required", internalShared.ErrValidation)
		}
		created, err = tx.Insert(ctx, acc)
		return err
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, "account.create", created.ID, map[string]any{"code": created.Code, "fiscal_year_id": created.FiscalYearID})
	return created, nil
}

// Update edits an account. Re-parenting rejects cycles and recomputes the
// level of the whole moved subtree.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Account, error) {
	var updated Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		acc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Code != nil {
			acc.Code = *in.Code
		}
		if in.Title != nil {
			acc.Title = *in.Title
		}
		if in.Type != nil {
			if !in.Type.Valid() {
				return fmt.Errorf("%w: unknown account type %q", internalShared.ErrValidation, *in.Type)
			}
			acc.Type = *in.Type
		}
		if in.SortOrder != nil {
			acc.SortOrder = *in.SortOrder
		}
		moved := false
		switch {
		case in.ClearParent:
			moved = acc.ParentID != nil
			acc.ParentID = nil
			acc.Level = 1
		case in.ParentID != nil && (acc.ParentID == nil || *acc.ParentID != *in.ParentID):
			parent, err := tx.Get(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.FiscalYearID != acc.FiscalYearID {
				return shared.ErrAccountOutsideYear
			}
			chart, err := tx.List(ctx, acc.FiscalYearID)
			if err != nil {
				return err
			}
			parents := make(map[int64]*int64, len(chart))
			for _, a := range chart {
				parents[a.ID] = a.ParentID
			}
			// No acyclic ancestry is longer than the chart itself.
			err = CheckParent(acc.ID, parent.ID, func(cur int64) (*int64, error) {
				p, ok := parents[cur]
				if !ok {
					return nil, fmt.Errorf("%w: %d", shared.ErrAccountNotFound, cur)
				}
				return p, nil
			}, len(chart))
			if err != nil {
				return err
			}
			moved = true
			acc.ParentID = &parent.ID
			acc.Level = parent.Level + 1
		}
		if err := tx.Update(ctx, acc); err != nil {
			return err
		}
		if moved {
			list, err := tx.List(ctx, acc.FiscalYearID)
			if err != nil {
				return err
			}
			levels := SubtreeLevels(list, acc.ID, acc.Level)
			delete(levels, acc.ID)
			if len(levels) > 0 {
				if err := tx.SetLevels(ctx, levels); err != nil {
					return err
				}
			}
		}
		updated = acc
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, "account.update", id, map[string]any{"code": updated.Code})
	return updated, nil
}

// Delete removes a leaf, non-system account with no references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		acc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if acc.IsSystem {
			return shared.ErrSystemAccount
		}
		children, err := tx.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return shared.ErrAccountHasChildren
		}
		refs, err := tx.References(ctx, id)
		if err != nil {
			return err
		}
		if refs.Total() > 0 {
			return fmt.Errorf("%w: %d journal lines, %d cash accounts, %d mappings",
				shared.ErrAccountReferenced, refs.JournalLines, refs.CashAccounts, refs.Mappings)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "account.delete", id, nil)
	return nil
}

// SeedDefaults creates the system chart and its posting rule mappings.
// Accounts that already exist by code are reused, so reseeding is harmless.
func (s *Service) SeedDefaults(ctx context.Context, fiscalYearID int64) ([]Account, error) {
	var seeded []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.FiscalYearExists(ctx, fiscalYearID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrFiscalYearNotFound
		}
		existing, err := tx.List(ctx, fiscalYearID)
		if err != nil {
			return err
		}
		byCode := make(map[string]Account, len(existing))
		for _, acc := range existing {
			byCode[acc.Code] = acc
		}
		for idx, def := range defaultChart {
			acc, ok := byCode[def.Code]
			if !ok {
				acc = Account{
					FiscalYearID: fiscalYearID,
					Code:         def.Code,
					Title:        def.Title,
					Level:        1,
					Type:         def.Type,
					SortOrder:    idx,
					IsSystem:     true,
				}
				if def.ParentCode != "" {
					parent := byCode[def.ParentCode]
					acc.ParentID = &parent.ID
					acc.Level = parent.Level + 1
				}
				acc, err = tx.Insert(ctx, acc)
				if err != nil {
					return err
				}
				byCode[acc.Code] = acc
				seeded = append(seeded, acc)
			}
			for _, key := range def.Mappings {
				if err := tx.SeedMapping(ctx, fiscalYearID, key, acc.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "account.seed", fiscalYearID, map[string]any{"created": len(seeded)})
	return seeded, nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "account",
		EntityID: internalShared.EntityRef(id),
		Meta:     meta,
		At:       s.now(),
	})
}
