package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/cashaccounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/cheques"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/invoices"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/vouchers"
	"github.com/odyssey-erp/odyssey-books/internal/audit"
	"github.com/odyssey-erp/odyssey-books/internal/directory"
	"github.com/odyssey-erp/odyssey-books/internal/observability"
	"github.com/odyssey-erp/odyssey-books/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Idempotency IdempotencyStore
	Metrics     *observability.Metrics

	FiscalYears  *fiscalyears.Handler
	Accounts     *accounts.Handler
	Mappings     *mappings.Handler
	CashAccounts *cashaccounts.Handler
	Journals     *journals.Handler
	Reports      *reports.Handler
	Vouchers     *vouchers.Handler
	Cheques      *cheques.Handler
	Invoices     *invoices.Handler
	Directory    *directory.Handler
	Audit        *audit.Handler
	Jobs         *jobs.Handler
}

// NewRouter constructs the chi.Router serving the accounting API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Idempotency: params.Idempotency,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.FiscalYears != nil {
			r.Route("/fiscal-years", params.FiscalYears.MountRoutes)
		}
		if params.Accounts != nil {
			r.Route("/fiscal-years/{fy}/accounts", params.Accounts.MountYearRoutes)
		}
		if params.Mappings != nil {
			r.Route("/fiscal-years/{fy}/mappings", params.Mappings.MountRoutes)
		}
		if params.Accounts != nil {
			r.Route("/accounts", params.Accounts.MountRoutes)
		}
		if params.CashAccounts != nil {
			r.Route("/cash-accounts", params.CashAccounts.MountRoutes)
		}
		if params.Journals != nil {
			r.Route("/journals", params.Journals.MountRoutes)
		}
		if params.Reports != nil {
			r.Route("/reports", params.Reports.MountRoutes)
		}
		if params.Vouchers != nil {
			r.Route("/vouchers", params.Vouchers.MountRoutes)
		}
		if params.Cheques != nil {
			r.Route("/cheques", params.Cheques.MountRoutes)
		}
		if params.Invoices != nil {
			r.Route("/invoices", params.Invoices.MountRoutes)
		}
		if params.Directory != nil {
			r.Route("/directory", params.Directory.MountRoutes)
		}
		if params.Audit != nil {
			r.Route("/audit", params.Audit.MountRoutes)
		}
	})

	return r
}
