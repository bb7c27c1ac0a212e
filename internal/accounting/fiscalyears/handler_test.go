package fiscalyears

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, nil))
	r := chi.NewRouter()
	r.Route("/fiscal-years", h.MountRoutes)
	return r
}

func TestHandlerCreateAndShow(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo)

	body := `{"name":"FY1","start_date":"2024-01-01","end_date":"2024-12-31","activate":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fiscal-years/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created["id"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fiscal-years/active", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var fy FiscalYear
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fy))
	assert.Equal(t, "FY1", fy.Name)
	assert.True(t, fy.IsActive)
}

func TestHandlerErrorMapping(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fiscal-years/", strings.NewReader(`{"name":"FY1","start_date":"2024-13-01","end_date":"2024-12-31"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fiscal-years/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fiscal-years/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	repo.years[7] = &FiscalYear{ID: 7, Name: "busy"}
	repo.dependents[7] = Dependents{Invoices: 2}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/fiscal-years/7", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Referenced")
}
