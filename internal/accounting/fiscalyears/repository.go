package fiscalyears

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository encapsulates DB operations for fiscal years.
type Repository interface {
	List(ctx context.Context) ([]FiscalYear, error)
	Get(ctx context.Context, id int64) (FiscalYear, error)
	GetActive(ctx context.Context) (FiscalYear, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, in CreateInput) (FiscalYear, error)
	GetForUpdate(ctx context.Context, id int64) (FiscalYear, error)
	Update(ctx context.Context, fy FiscalYear) error
	Dependents(ctx context.Context, id int64) (Dependents, error)
	DocumentSpan(ctx context.Context, id int64) (DocumentSpan, error)
	Delete(ctx context.Context, id int64) error
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectColumns = `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM fiscal_years`

func scanFiscalYear(row pgx.Row) (FiscalYear, error) {
	var fy FiscalYear
	err := row.Scan(&fy.ID, &fy.Name, &fy.StartDate, &fy.EndDate, &fy.IsActive, &fy.CreatedAt, &fy.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalYear{}, shared.ErrFiscalYearNotFound
	}
	return fy, err
}

func (r *repository) List(ctx context.Context) ([]FiscalYear, error) {
	rows, err := r.db.Query(ctx, selectColumns+` ORDER BY start_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalYear
	for rows.Next() {
		fy, err := scanFiscalYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (FiscalYear, error) {
	return Load(ctx, r.db, id)
}

func (r *repository) GetActive(ctx context.Context) (FiscalYear, error) {
	return LoadActive(ctx, r.db)
}

// Load reads one fiscal year through q, which may be a pool or a transaction.
func Load(ctx context.Context, q db.Querier, id int64) (FiscalYear, error) {
	return scanFiscalYear(q.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
}

// LoadActive reads the active fiscal year through q.
func LoadActive(ctx context.Context, q db.Querier) (FiscalYear, error) {
	fy, err := scanFiscalYear(q.QueryRow(ctx, selectColumns+` WHERE is_active`))
	if errors.Is(err, shared.ErrFiscalYearNotFound) {
		return FiscalYear{}, shared.ErrNoActiveFiscalYear
	}
	return fy, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, in CreateInput) (FiscalYear, error) {
	return scanFiscalYear(r.tx.QueryRow(ctx, `INSERT INTO fiscal_years (name, start_date, end_date)
VALUES ($1,$2,$3) RETURNING id, name, start_date, end_date, is_active, created_at, updated_at`, in.Name, in.StartDate, in.EndDate))
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (FiscalYear, error) {
	return scanFiscalYear(r.tx.QueryRow(ctx, selectColumns+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Update(ctx context.Context, fy FiscalYear) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET name=$2, start_date=$3, end_date=$4, updated_at=$5 WHERE id=$1`,
		fy.ID, fy.Name, fy.StartDate, fy.EndDate, time.Now())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrFiscalYearNotFound
	}
	return nil
}

func (r *txRepository) Dependents(ctx context.Context, id int64) (Dependents, error) {
	var d Dependents
	err := r.tx.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM journal_entries WHERE fiscal_year_id=$1),
    (SELECT COUNT(*) FROM invoices WHERE fiscal_year_id=$1),
    (SELECT COUNT(*) FROM receipt_vouchers WHERE fiscal_year_id=$1),
    (SELECT COUNT(*) FROM chart_of_accounts WHERE fiscal_year_id=$1)`, id).
		Scan(&d.JournalEntries, &d.Invoices, &d.Vouchers, &d.Accounts)
	return d, err
}

func (r *txRepository) DocumentSpan(ctx context.Context, id int64) (DocumentSpan, error) {
	var span DocumentSpan
	err := r.tx.QueryRow(ctx, `SELECT MIN(d), MAX(d) FROM (
    SELECT voucher_date AS d FROM journal_entries WHERE fiscal_year_id=$1
    UNION ALL SELECT invoice_date FROM invoices WHERE fiscal_year_id=$1
    UNION ALL SELECT voucher_date FROM receipt_vouchers WHERE fiscal_year_id=$1
) docs`, id).Scan(&span.First, &span.Last)
	return span, err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM document_sequences WHERE fiscal_year_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM fiscal_years WHERE id=$1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.ErrFiscalYearReferenced
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrFiscalYearNotFound
	}
	return nil
}

// Activate clears the previous active year before flagging id; the partial
// unique index is checked per row, so both steps cannot share one UPDATE.
func (r *txRepository) Activate(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET is_active=FALSE, updated_at=NOW() WHERE is_active AND id<>$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET is_active=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_fiscal_years_active") {
			return fmt.Errorf("%w: another fiscal year became active", internalShared.ErrConflict)
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrFiscalYearNotFound
	}
	return nil
}

func (r *txRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	return err
}
