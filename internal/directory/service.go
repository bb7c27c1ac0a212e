package directory

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Person(ctx context.Context, id int64) (Person, error) {
	return s.repo.Person(ctx, id)
}

func (s *Service) Product(ctx context.Context, id int64) (Product, error) {
	return s.repo.Product(ctx, id)
}

// PersonReferenced reports whether any invoice, voucher or cheque points at
// the person, so the CRM can refuse to delete it.
func (s *Service) PersonReferenced(ctx context.Context, id int64) (bool, PersonUsage, error) {
	if _, err := s.repo.Person(ctx, id); err != nil {
		return false, PersonUsage{}, err
	}
	usage, err := s.repo.PersonUsage(ctx, id)
	if err != nil {
		return false, PersonUsage{}, err
	}
	return usage.Total() > 0, usage, nil
}
