package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

// ReportBuilder builds cached ledger reports.
type ReportBuilder interface {
	TrialBalance(ctx context.Context, q reports.Query) (reports.TrialBalance, error)
	Statements(ctx context.Context, q reports.Query) (reports.Statements, error)
}

// ReportsWarmupJob runs the reports:warmup task. It requests the reports
// with default parameters so the first user request hits the cache.
type ReportsWarmupJob struct {
	Reports ReportBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewReportsWarmupJob constructs the job handler.
func NewReportsWarmupJob(builder ReportBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: builder, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes reports:warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	payload, err := decodeFiscalYearPayload(t)
	if err != nil {
		return err
	}

	tracker := metricsOr(j.Metrics).Track(TaskReportsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	logger := loggerFor(j.Logger, TaskReportsWarmup)
	q := reports.Query{FiscalYearID: payload.FiscalYearID}
	tb, err := j.Reports.TrialBalance(ctx, q)
	if err != nil {
		logger.Error("warm trial balance", slog.Int64("fiscal_year_id", payload.FiscalYearID), slog.Any("error", err))
		return err
	}
	q.FiscalYearID = tb.FiscalYearID
	if _, err := j.Reports.Statements(ctx, q); err != nil {
		logger.Error("warm statements", slog.Int64("fiscal_year_id", q.FiscalYearID), slog.Any("error", err))
		return err
	}
	logger.Info("report cache warmed", slog.Int64("fiscal_year_id", q.FiscalYearID), slog.Int("groups", len(tb.Groups)), slog.Bool("balanced", tb.Balanced))
	return nil
}
