package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

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
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Services holds the accounting services shared by the API and the worker.
type Services struct {
	FiscalYears  *fiscalyears.Service
	Accounts     *accounts.Service
	Mappings     *mappings.Service
	CashAccounts *cashaccounts.Service
	Journals     *journals.Service
	Reports      *reports.Service
	Vouchers     *vouchers.Service
	Cheques      *cheques.Service
	Invoices     *invoices.Service
	Directory    *directory.Service
	Audit        *audit.Service
}

// NewServices wires every accounting service against one pool. A nil redis
// client disables the report cache; nil metrics disable posting counters.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics) *Services {
	auditLog := shared.NewAuditLogger(pool)

	journalService := journals.NewService(journals.NewRepository(pool), auditLog)
	voucherService := vouchers.NewService(vouchers.NewRepository(pool), auditLog)
	invoiceService := invoices.NewService(invoices.NewRepository(pool), auditLog)
	reportService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL), cfg.DefaultCurrency)
	if metrics != nil {
		journalService.WithObserver(metrics)
		voucherService.WithObserver(metrics)
		invoiceService.WithObserver(metrics)
		reportService.WithObserver(metrics)
	}

	return &Services{
		FiscalYears:  fiscalyears.NewService(fiscalyears.NewRepository(pool), auditLog),
		Accounts:     accounts.NewService(accounts.NewRepository(pool), auditLog),
		Mappings:     mappings.NewService(mappings.NewRepository(pool)),
		CashAccounts: cashaccounts.NewService(cashaccounts.NewRepository(pool), auditLog),
		Journals:     journalService,
		Reports:      reportService,
		Vouchers:     voucherService,
		Cheques:      cheques.NewService(cheques.NewRepository(pool), auditLog),
		Invoices:     invoiceService,
		Directory:    directory.NewService(directory.NewRepository(pool)),
		Audit:        audit.NewService(audit.NewRepository(pool)),
	}
}

// Handlers builds the HTTP handlers of every service into params.
func (s *Services) Handlers(logger *slog.Logger, params *RouterParams) {
	params.FiscalYears = fiscalyears.NewHandler(logger, s.FiscalYears)
	params.Accounts = accounts.NewHandler(logger, s.Accounts)
	params.Mappings = mappings.NewHandler(logger, s.Mappings)
	params.CashAccounts = cashaccounts.NewHandler(logger, s.CashAccounts)
	params.Journals = journals.NewHandler(logger, s.Journals)
	params.Reports = reports.NewHandler(logger, s.Reports)
	params.Vouchers = vouchers.NewHandler(logger, s.Vouchers)
	params.Cheques = cheques.NewHandler(logger, s.Cheques)
	params.Invoices = invoices.NewHandler(logger, s.Invoices)
	params.Directory = directory.NewHandler(logger, s.Directory)
	params.Audit = audit.NewHandler(logger, s.Audit)
}
