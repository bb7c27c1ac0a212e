package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Query carries report parameters. A zero FiscalYearID means the active year.
type Query struct {
	FiscalYearID int64
	AccountID    int64
	From         *time.Time
	To           *time.Time
	AsOf         *time.Time
}

// Statements bundles the three financial statements of one request.
type Statements struct {
	TrialBalance  TrialBalance  `json:"trial_balance"`
	BalanceSheet  BalanceSheet  `json:"balance_sheet"`
	ProfitAndLoss ProfitAndLoss `json:"profit_and_loss"`
}

// CacheObserver receives report cache outcomes.
type CacheObserver interface {
	ObserveReportCache(report string, hit bool)
}

// Service builds ledger reports from posted entries only.
type Service struct {
	repo     Repository
	cache    *Cache
	currency string
	observer CacheObserver
	group    singleflight.Group
}

func NewService(repo Repository, cache *Cache, currency string) *Service {
	return &Service{repo: repo, cache: cache, currency: currency}
}

func (s *Service) WithObserver(o CacheObserver) {
	s.observer = o
}

// Turnover returns the ledger of one account.
func (s *Service) Turnover(ctx context.Context, q Query) (AccountTurnover, error) {
	if q.AccountID <= 0 {
		return AccountTurnover{}, fmt.Errorf("%w: account_id required", internalShared.ErrValidation)
	}
	fy, w, err := s.window(ctx, q, false)
	if err != nil {
		return AccountTurnover{}, err
	}
	acc, err := s.repo.Account(ctx, q.AccountID)
	if err != nil {
		return AccountTurnover{}, err
	}
	if acc.FiscalYearID != fy.ID {
		return AccountTurnover{}, fmt.Errorf("%w: account %d", shared.ErrAccountOutsideYear, acc.ID)
	}
	key := []string{"turnover", strconv.FormatInt(acc.ID, 10), dateToken(w.From), dateToken(w.To)}
	return cached(ctx, s, fy.ID, key, func(ctx context.Context) (AccountTurnover, error) {
		lines, err := s.repo.PostedLines(ctx, LineQuery{FiscalYearID: fy.ID, AccountID: acc.ID, To: w.To})
		if err != nil {
			return AccountTurnover{}, err
		}
		report := BuildTurnover(acc, lines, w)
		report.Currency = s.currency
		return report, nil
	})
}

// TrialBalance returns per-account debit and credit sums.
func (s *Service) TrialBalance(ctx context.Context, q Query) (TrialBalance, error) {
	fy, w, err := s.window(ctx, q, false)
	if err != nil {
		return TrialBalance{}, err
	}
	return s.trialBalance(ctx, fy, w)
}

func (s *Service) trialBalance(ctx context.Context, fy fiscalyears.FiscalYear, w Window) (TrialBalance, error) {
	key := []string{"tb", dateToken(w.From), dateToken(w.To)}
	return cached(ctx, s, fy.ID, key, func(ctx context.Context) (TrialBalance, error) {
		chart, lines, err := s.load(ctx, fy.ID, w.To)
		if err != nil {
			return TrialBalance{}, err
		}
		report := BuildTrialBalance(chart, lines, w)
		report.FiscalYearID = fy.ID
		report.Currency = s.currency
		return report, nil
	})
}

// BalanceSheet returns the position as of q.AsOf, defaulting to year end.
func (s *Service) BalanceSheet(ctx context.Context, q Query) (BalanceSheet, error) {
	fy, err := s.repo.FiscalYear(ctx, q.FiscalYearID)
	if err != nil {
		return BalanceSheet{}, err
	}
	return s.balanceSheet(ctx, fy, asOf(fy, q.AsOf))
}

func (s *Service) balanceSheet(ctx context.Context, fy fiscalyears.FiscalYear, at time.Time) (BalanceSheet, error) {
	key := []string{"bs", dateToken(&at)}
	return cached(ctx, s, fy.ID, key, func(ctx context.Context) (BalanceSheet, error) {
		chart, lines, err := s.load(ctx, fy.ID, &at)
		if err != nil {
			return BalanceSheet{}, err
		}
		report := BuildBalanceSheet(chart, lines, at)
		report.FiscalYearID = fy.ID
		report.Currency = s.currency
		return report, nil
	})
}

// ProfitAndLoss returns net income over the window, defaulting to the year.
func (s *Service) ProfitAndLoss(ctx context.Context, q Query) (ProfitAndLoss, error) {
	fy, w, err := s.window(ctx, q, true)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return s.profitAndLoss(ctx, fy, w)
}

func (s *Service) profitAndLoss(ctx context.Context, fy fiscalyears.FiscalYear, w Window) (ProfitAndLoss, error) {
	key := []string{"pl", dateToken(w.From), dateToken(w.To)}
	return cached(ctx, s, fy.ID, key, func(ctx context.Context) (ProfitAndLoss, error) {
		chart, lines, err := s.load(ctx, fy.ID, w.To)
		if err != nil {
			return ProfitAndLoss{}, err
		}
		report := BuildProfitAndLoss(chart, lines, w)
		report.FiscalYearID = fy.ID
		report.Currency = s.currency
		return report, nil
	})
}

// Statements builds the trial balance, balance sheet and profit and loss
// concurrently for the same year and window.
func (s *Service) Statements(ctx context.Context, q Query) (Statements, error) {
	fy, w, err := s.window(ctx, q, true)
	if err != nil {
		return Statements{}, err
	}
	var out Statements
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb, err := s.trialBalance(ctx, fy, w)
		out.TrialBalance = tb
		return err
	})
	g.Go(func() error {
		bs, err := s.balanceSheet(ctx, fy, asOf(fy, w.To))
		out.BalanceSheet = bs
		return err
	})
	g.Go(func() error {
		pl, err := s.profitAndLoss(ctx, fy, w)
		out.ProfitAndLoss = pl
		return err
	})
	if err := g.Wait(); err != nil {
		return Statements{}, err
	}
	return out, nil
}

// Integrity re-sums every posted entry of the year.
func (s *Service) Integrity(ctx context.Context, fiscalYearID int64) (IntegrityReport, error) {
	fy, err := s.repo.FiscalYear(ctx, fiscalYearID)
	if err != nil {
		return IntegrityReport{}, err
	}
	lines, err := s.repo.PostedLines(ctx, LineQuery{FiscalYearID: fy.ID})
	if err != nil {
		return IntegrityReport{}, err
	}
	report := CheckIntegrity(lines)
	report.FiscalYearID = fy.ID
	return report, nil
}

func (s *Service) load(ctx context.Context, fiscalYearID int64, to *time.Time) ([]accounts.Account, []PostedLine, error) {
	chart, err := s.repo.Accounts(ctx, fiscalYearID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.repo.PostedLines(ctx, LineQuery{FiscalYearID: fiscalYearID, To: to})
	if err != nil {
		return nil, nil, err
	}
	return chart, lines, nil
}

// window resolves the fiscal year and validates the range. With
// defaultToYear the open bounds are closed at the year boundaries.
func (s *Service) window(ctx context.Context, q Query, defaultToYear bool) (fiscalyears.FiscalYear, Window, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return fiscalyears.FiscalYear{}, Window{}, shared.ErrInvalidDateRange
	}
	fy, err := s.repo.FiscalYear(ctx, q.FiscalYearID)
	if err != nil {
		return fiscalyears.FiscalYear{}, Window{}, err
	}
	w := Window{From: q.From, To: q.To}
	if defaultToYear {
		if w.From == nil {
			start := fy.StartDate
			w.From = &start
		}
		if w.To == nil {
			end := fy.EndDate
			w.To = &end
		}
	}
	return fy, w, nil
}

func asOf(fy fiscalyears.FiscalYear, at *time.Time) time.Time {
	if at == nil {
		return shared.DateOnly(fy.EndDate)
	}
	return shared.DateOnly(*at)
}

func dateToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("20060102")
}

// buildTimeout bounds a shared build once no caller is left to cancel it.
const buildTimeout = time.Minute

// cached de-duplicates concurrent builds of the same report and serves
// repeated ones from Redis until the ledger fingerprint moves. The shared
// build outlives the caller that started it; each caller still stops
// waiting when its own context ends.
func cached[T any](ctx context.Context, s *Service, fiscalYearID int64, parts []string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	fingerprint, err := s.repo.Fingerprint(ctx, fiscalYearID)
	if err != nil {
		return zero, err
	}
	key := Key(append([]string{strconv.FormatInt(fiscalYearID, 10), fingerprint}, parts...)...)
	ch := s.group.DoChan(key, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		var out T
		hit, err := s.cache.FetchJSON(buildCtx, key, &out, func(ctx context.Context) (any, error) {
			return build(ctx)
		})
		if err == nil && s.observer != nil {
			s.observer.ObserveReportCache(parts[0], hit)
		}
		return out, err
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
