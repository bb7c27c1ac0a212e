package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue used by every ledger task.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-sums posted entries of a fiscal year.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportsWarmup pre-builds the trial balance into the report cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskIdempotencyCleanup prunes expired Idempotency-Key claims.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// FiscalYearPayload scopes a ledger task. A zero FiscalYearID targets the
// active fiscal year.
type FiscalYearPayload struct {
	FiscalYearID int64 `json:"fiscal_year_id"`
}

// NewLedgerIntegrityTask constructs a ledger:integrity task.
func NewLedgerIntegrityTask(fiscalYearID int64) (*asynq.Task, error) {
	return newFiscalYearTask(TaskLedgerIntegrity, fiscalYearID)
}

// NewReportsWarmupTask constructs a reports:warmup task.
func NewReportsWarmupTask(fiscalYearID int64) (*asynq.Task, error) {
	return newFiscalYearTask(TaskReportsWarmup, fiscalYearID)
}

// NewIdempotencyCleanupTask constructs an idempotency:cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

func newFiscalYearTask(typ string, fiscalYearID int64) (*asynq.Task, error) {
	if fiscalYearID < 0 {
		return nil, fmt.Errorf("jobs: invalid fiscal year %d", fiscalYearID)
	}
	data, err := json.Marshal(FiscalYearPayload{FiscalYearID: fiscalYearID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, data), nil
}

func decodeFiscalYearPayload(t *asynq.Task) (FiscalYearPayload, error) {
	var payload FiscalYearPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%s: decode payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.FiscalYearID < 0 {
		return payload, fmt.Errorf("%s: invalid fiscal year %d: %w", t.Type(), payload.FiscalYearID, asynq.SkipRetry)
	}
	return payload, nil
}

// Build resolves a short job name or task type into a task with its enqueue
// options. A zero fiscalYearID targets the active year.
func Build(name string, fiscalYearID int64) (*asynq.Task, []asynq.Option, error) {
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integrity", TaskLedgerIntegrity:
		task, err := NewLedgerIntegrityTask(fiscalYearID)
		return task, append(opts, asynq.MaxRetry(1)), err
	case "warmup", TaskReportsWarmup:
		task, err := NewReportsWarmupTask(fiscalYearID)
		return task, append(opts, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), err
	case "cleanup", TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(), append(opts, asynq.MaxRetry(3)), nil
	default:
		return nil, nil, fmt.Errorf("jobs: unsupported job %q (want integrity, warmup or cleanup)", name)
	}
}

// DefaultSchedule is the nightly cron plan in UTC, each entry scoped to the
// active fiscal year.
func DefaultSchedule() ([]CronRegistration, error) {
	plan := []struct{ spec, name string }{
		{"0 2 * * *", TaskLedgerIntegrity},
		{"15 3 * * *", TaskIdempotencyCleanup},
		{"30 5 * * *", TaskReportsWarmup},
	}
	out := make([]CronRegistration, 0, len(plan))
	for _, p := range plan {
		task, opts, err := Build(p.name, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: p.spec, Task: task, Options: opts})
	}
	return out, nil
}
