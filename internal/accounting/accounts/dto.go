package accounts

import (
	"fmt"
	"strings"

	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// CreateInput describes a new chart account.
type CreateInput struct {
	FiscalYearID int64
	Code         string
	Title        string
	ParentID     *int64
	Type         AccountType
	SortOrder    int
}

func (in CreateInput) Validate() error {
	if in.FiscalYearID == 0 {
		return fmt.Errorf("%w: fiscal year required", internalShared.ErrValidation)
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: code and title required", internalShared.ErrValidation)
	}
	if in.Type != "" && !in.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", internalShared.ErrValidation, in.Type)
	}
	return nil
}

// UpdateInput carries optional changes. ClearParent moves the account to the root.
type UpdateInput struct {
	Code        *string
	Title       *string
	ParentID    *int64
	ClearParent bool
	Type        *AccountType
	SortOrder   *int
}

type createRequest struct {
	Code      string `json:"code" validate:"required,max=32"`
	Title     string `json:"title" validate:"required,max=200"`
	ParentID  *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	Type      string `json:"account_type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	SortOrder int    `json:"sort_order"`
}

func (r createRequest) toInput(fiscalYearID int64) CreateInput {
	return CreateInput{
		FiscalYearID: fiscalYearID,
		Code:         strings.TrimSpace(r.Code),
		Title:        strings.TrimSpace(r.Title),
		ParentID:     r.ParentID,
		Type:         AccountType(r.Type),
		SortOrder:    r.SortOrder,
	}
}

type updateRequest struct {
	Code        *string `json:"code,omitempty" validate:"omitempty,min=1,max=32"`
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	ParentID    *int64  `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	ClearParent bool    `json:"clear_parent"`
	Type        *string `json:"account_type,omitempty" validate:"omitempty,oneof=asset liability equity revenue expense"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

func (r updateRequest) toInput() UpdateInput {
	in := UpdateInput{Code: r.Code, Title: r.Title, ParentID: r.ParentID, ClearParent: r.ClearParent, SortOrder: r.SortOrder}
	if r.Type != nil {
		t := AccountType(*r.Type)
		in.Type = &t
	}
	return in
}
