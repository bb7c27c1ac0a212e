package mappings

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, fiscalYearID int64) ([]AccountMapping, error) {
	return s.repo.List(ctx, fiscalYearID)
}

func (s *Service) Resolve(ctx context.Context, fiscalYearID int64, key string) (int64, error) {
	m, err := s.repo.Get(ctx, fiscalYearID, key)
	if err != nil {
		return 0, err
	}
	return m.AccountID, nil
}

// Set points key at an account of the same fiscal year.
func (s *Service) Set(ctx context.Context, fiscalYearID int64, key string, accountID int64) error {
	if !KnownKey(key) {
		return fmt.Errorf("%w: unknown key %q", shared.ErrMappingNotFound, key)
	}
	return s.repo.Set(ctx, fiscalYearID, key, accountID)
}
