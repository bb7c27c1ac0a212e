package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

type stubRepo struct {
	entries    []Entry
	lastFilter TimelineFilters
	lastLimit  int
	lastOffset int
	err        error
}

func (s *stubRepo) Count(_ context.Context, f TimelineFilters) (int, error) {
	s.lastFilter = f
	return len(s.entries), s.err
}

func (s *stubRepo) List(_ context.Context, f TimelineFilters, limit, offset int) ([]Entry, error) {
	s.lastFilter, s.lastLimit, s.lastOffset = f, limit, offset
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return s.entries[offset:end], nil
}

func sampleEntries(n int) []Entry {
	out := make([]Entry, n)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = Entry{
			ID:         int64(n - i),
			ActorID:    7,
			Action:     "journal.post",
			Entity:     "journal_entry",
			EntityID:   "12",
			OccurredAt: at.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{entries: sampleEntries(5)}
	svc := NewService(repo)

	res, err := svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2, Entity: " journal_entry "})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, 2, repo.lastLimit)
	assert.Equal(t, 2, repo.lastOffset)
	assert.Equal(t, "journal_entry", repo.lastFilter.Entity)
	assert.Equal(t, 5, res.Paging.Total)
	assert.Equal(t, 3, res.Paging.TotalPages)
	assert.True(t, res.Paging.HasNext())
}

func TestTimelineDefaultsAndCap(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	res, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Equal(t, defaultPageSize, repo.lastLimit)
	assert.Equal(t, 1, res.Paging.Page)

	_, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastLimit)
}

func TestTimelineRejectsInvertedRange(t *testing.T) {
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err := NewService(&stubRepo{}).Timeline(context.Background(), TimelineFilters{From: &from, To: &to})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestWriteCSV(t *testing.T) {
	entries := sampleEntries(1)
	entries[0].Meta = json.RawMessage(`{"voucher_no":3}`)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"1", "2024-03-10T09:00:00Z", "7", "journal.post", "journal_entry", "12", `{"voucher_no":3}`}, records[1])
}

func newRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	r.Route("/audit", NewHandler(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), NewService(repo)).MountRoutes)
	return r
}

func TestHandlerTimeline(t *testing.T) {
	repo := &stubRepo{entries: sampleEntries(3)}
	rec := httptest.NewRecorder()
	newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?entity=journal_entry&actor=7&from=2024-03-01&to=2024-03-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Entries, 3)
	assert.Equal(t, int64(7), repo.lastFilter.ActorID)
	require.NotNil(t, repo.lastFilter.From)
	assert.Equal(t, "2024-03-01", repo.lastFilter.From.Format("2006-01-02"))
}

func TestHandlerBadQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubRepo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerExport(t *testing.T) {
	repo := &stubRepo{entries: sampleEntries(2)}
	rec := httptest.NewRecorder()
	newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, ExportLimit, repo.lastLimit)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHandlerRepositoryFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubRepo{err: errors.New("conn reset")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
