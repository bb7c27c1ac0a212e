package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ErrLedgerImbalanced is returned when posted entries no longer balance.
// Retrying cannot fix the ledger, so the task is archived.
var ErrLedgerImbalanced = errors.New("ledger imbalanced")

// IntegrityChecker re-sums the posted entries of a fiscal year.
type IntegrityChecker interface {
	Integrity(ctx context.Context, fiscalYearID int64) (reports.IntegrityReport, error)
}

// LedgerIntegrityJob runs the ledger:integrity task.
type LedgerIntegrityJob struct {
	Checker IntegrityChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLedgerIntegrityJob constructs the job handler.
func NewLedgerIntegrityJob(checker IntegrityChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{
		Checker: checker,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes ledger:integrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Checker == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	payload, err := decodeFiscalYearPayload(t)
	if err != nil {
		return err
	}

	tracker := metricsOr(j.Metrics).Track(TaskLedgerIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.clock()
	logger := loggerFor(j.Logger, TaskLedgerIntegrity)
	report, err := j.Checker.Integrity(ctx, payload.FiscalYearID)
	if err != nil {
		logger.Error("ledger integrity scan", slog.Int64("fiscal_year_id", payload.FiscalYearID), slog.Any("error", err))
		return err
	}
	logger = logger.With(slog.Int64("fiscal_year_id", report.FiscalYearID))
	metricsOr(j.Metrics).SetImbalances(report.FiscalYearID, len(report.Imbalanced))

	for _, e := range report.Imbalanced {
		logger.Error("imbalanced posted entry",
			slog.Int64("entry_id", e.EntryID),
			slog.Int64("voucher_no", e.VoucherNo),
			slog.String("debit", e.Debit.StringFixed(2)),
			slog.String("credit", e.Credit.StringFixed(2)))
	}
	if n := len(report.Imbalanced); n > 0 {
		return fmt.Errorf("%w: %d of %d entries in fiscal year %d: %w",
			ErrLedgerImbalanced, n, report.Entries, report.FiscalYearID, asynq.SkipRetry)
	}
	logger.Info("ledger balanced", slog.Int("entries", report.Entries), slog.Duration("duration", j.clock().Sub(start)))
	return nil
}

func metricsOr(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func loggerFor(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
