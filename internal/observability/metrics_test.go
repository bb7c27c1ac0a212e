package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesLedgerCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObservePosting("voucher")
	metrics.ObservePosting("voucher")
	metrics.ObservePosting("invoice")
	metrics.ObserveReportCache("trial_balance", true)
	metrics.ObserveReportCache("trial_balance", false)

	body := scrape(t, metrics)
	for _, want := range []string{
		`odyssey_ledger_postings_total{document="voucher"} 2`,
		`odyssey_ledger_postings_total{document="invoice"} 1`,
		`odyssey_report_cache_total{outcome="hit",report="trial_balance"} 1`,
		`odyssey_report_cache_total{outcome="miss",report="trial_balance"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %s, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObservePosting("voucher")
	metrics.ObserveReportCache("balance_sheet", true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/v1/vouchers/{id}/post")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers/9/post", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `http_requests_total{code="409",route="/api/v1/vouchers/{id}/post"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `http_request_duration_seconds_bucket{route="/api/v1/vouchers/{id}/post"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}
