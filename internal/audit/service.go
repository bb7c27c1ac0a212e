package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// ExportLimit caps a CSV export.
	ExportLimit = 10000
)

// Service reads the audit trail written by the accounting services.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, f TimelineFilters) (Result, error) {
	f, err := normalize(f)
	if err != nil {
		return Result{}, err
	}
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return Result{}, err
	}
	paging := shared.NewPagination(f.Page, size, total)
	entries, err := s.repo.List(ctx, f, paging.PerPage, paging.Offset())
	if err != nil {
		return Result{}, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return Result{Entries: entries, Paging: paging}, nil
}

// Export returns every matching entry up to ExportLimit.
func (s *Service) Export(ctx context.Context, f TimelineFilters) ([]Entry, error) {
	f, err := normalize(f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f, ExportLimit, 0)
}

func normalize(f TimelineFilters) (TimelineFilters, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("%w: to precedes from", shared.ErrValidation)
	}
	if f.ActorID < 0 {
		return f, fmt.Errorf("%w: invalid actor %d", shared.ErrValidation, f.ActorID)
	}
	f.Entity = strings.TrimSpace(f.Entity)
	f.EntityID = strings.TrimSpace(f.EntityID)
	f.Action = strings.TrimSpace(f.Action)
	return f, nil
}

var csvHeader = []string{"id", "occurred_at", "actor_id", "action", "entity", "entity_id", "meta"}

// WriteCSV encodes entries with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.OccurredAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.ActorID, 10),
			e.Action,
			e.Entity,
			e.EntityID,
			string(e.Meta),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
