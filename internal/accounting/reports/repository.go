package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
)

// LineQuery selects posted lines of a fiscal year. A zero AccountID selects
// every account; a nil To leaves the upper bound open.
type LineQuery struct {
	FiscalYearID int64
	AccountID    int64
	To           *time.Time
}

// Repository reads the posted ledger.
type Repository interface {
	FiscalYear(ctx context.Context, id int64) (fiscalyears.FiscalYear, error)
	Accounts(ctx context.Context, fiscalYearID int64) ([]accounts.Account, error)
	Account(ctx context.Context, id int64) (accounts.Account, error)
	PostedLines(ctx context.Context, q LineQuery) ([]PostedLine, error)
	// Fingerprint changes whenever an entry of the year is posted or its
	// chart of accounts is edited.
	Fingerprint(ctx context.Context, fiscalYearID int64) (string, error)
}

type repository struct {
	db    *pgxpool.Pool
	chart accounts.Repository
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, chart: accounts.NewRepository(pool)}
}

func (r *repository) FiscalYear(ctx context.Context, id int64) (fiscalyears.FiscalYear, error) {
	if id == 0 {
		return fiscalyears.LoadActive(ctx, r.db)
	}
	return fiscalyears.Load(ctx, r.db, id)
}

func (r *repository) Accounts(ctx context.Context, fiscalYearID int64) ([]accounts.Account, error) {
	return r.chart.List(ctx, fiscalYearID)
}

func (r *repository) Account(ctx context.Context, id int64) (accounts.Account, error) {
	return r.chart.Get(ctx, id)
}

func (r *repository) PostedLines(ctx context.Context, q LineQuery) ([]PostedLine, error) {
	var to any
	if q.To != nil {
		to = *q.To
	}
	rows, err := r.db.Query(ctx, `SELECT l.id, e.id, e.voucher_no, e.voucher_date, l.account_id, l.debit, l.credit,
       COALESCE(NULLIF(l.description, ''), e.description)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'posted'
  AND e.fiscal_year_id = $1
  AND ($2::bigint = 0 OR l.account_id = $2)
  AND ($3::date IS NULL OR e.voucher_date <= $3::date)
ORDER BY e.voucher_date, e.voucher_no, l.sort_order, l.id`, q.FiscalYearID, q.AccountID, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostedLine
	for rows.Next() {
		var l PostedLine
		if err := rows.Scan(&l.LineID, &l.EntryID, &l.VoucherNo, &l.Date, &l.AccountID, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) Fingerprint(ctx context.Context, fiscalYearID int64) (string, error) {
	var (
		entries, maxID, accountCount int64
		lastPosted, chartEdited      *time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT e.n, e.max_id, e.last_posted, c.n, c.last_edit
FROM (SELECT COUNT(*) AS n, COALESCE(MAX(id), 0) AS max_id, MAX(posted_at) AS last_posted
      FROM journal_entries WHERE fiscal_year_id=$1 AND status='posted') e,
     (SELECT COUNT(*) AS n, MAX(updated_at) AS last_edit
      FROM chart_of_accounts WHERE fiscal_year_id=$1) c`, fiscalYearID).
		Scan(&entries, &maxID, &lastPosted, &accountCount, &chartEdited)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d-%d.%d-%d", entries, maxID, unixNano(lastPosted), accountCount, unixNano(chartEdited)), nil
}

func unixNano(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
