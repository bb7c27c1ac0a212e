package fiscalyears

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// CreateInput holds fields for a new fiscal year.
type CreateInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Activate  bool
}

// Validate checks required fields and the date range.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: fiscal year name required", internalShared.ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end date required", internalShared.ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// UpdateInput carries optional changes; nil fields stay untouched.
type UpdateInput struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
}

type createRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Activate  bool   `json:"activate"`
}

func (r createRequest) toInput() CreateInput {
	start, _ := time.Parse(httpx.DateLayout, r.StartDate)
	end, _ := time.Parse(httpx.DateLayout, r.EndDate)
	return CreateInput{Name: r.Name, StartDate: start, EndDate: end, Activate: r.Activate}
}

type updateRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (r updateRequest) toInput() UpdateInput {
	in := UpdateInput{Name: r.Name, IsActive: r.IsActive}
	if r.StartDate != nil {
		d, _ := time.Parse(httpx.DateLayout, *r.StartDate)
		in.StartDate = &d
	}
	if r.EndDate != nil {
		d, _ := time.Parse(httpx.DateLayout, *r.EndDate)
		in.EndDate = &d
	}
	return in
}
