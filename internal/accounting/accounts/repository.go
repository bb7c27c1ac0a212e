package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, fiscalYearID int64) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	List(ctx context.Context, fiscalYearID int64) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetForUpdate(ctx context.Context, id int64) (Account, error)
	FiscalYearExists(ctx context.Context, fiscalYearID int64) (bool, error)
	Insert(ctx context.Context, acc Account) (Account, error)
	Update(ctx context.Context, acc Account) error
	SetLevels(ctx context.Context, levels map[int64]int) error
	CountChildren(ctx context.Context, id int64) (int64, error)
	References(ctx context.Context, id int64) (References, error)
	Delete(ctx context.Context, id int64) error
	SeedMapping(ctx context.Context, fiscalYearID int64, key string, accountID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectColumns = `SELECT id, fiscal_year_id, code, title, level, parent_id, account_type, sort_order, is_system, created_at, updated_at FROM chart_of_accounts`

type rowQuerier interface {
	db.Querier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.FiscalYearID, &a.Code, &a.Title, &a.Level, &a.ParentID, &a.Type, &a.SortOrder, &a.IsSystem, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, err
}

func listAccounts(ctx context.Context, q rowQuerier, fiscalYearID int64) ([]Account, error) {
	rows, err := q.Query(ctx, selectColumns+` WHERE fiscal_year_id=$1 ORDER BY sort_order, code`, fiscalYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, fiscalYearID int64) ([]Account, error) {
	return listAccounts(ctx, r.db, fiscalYearID)
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) List(ctx context.Context, fiscalYearID int64) ([]Account, error) {
	return listAccounts(ctx, r.tx, fiscalYearID)
}

func (r *txRepository) Get(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, selectColumns+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) FiscalYearExists(ctx context.Context, fiscalYearID int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fiscal_years WHERE id=$1)`, fiscalYearID).Scan(&ok)
	return ok, err
}

func (r *txRepository) Insert(ctx context.Context, acc Account) (Account, error) {
	created, err := scanAccount(r.tx.QueryRow(ctx, `INSERT INTO chart_of_accounts (fiscal_year_id, code, title, level, parent_id, account_type, sort_order, is_system)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, fiscal_year_id, code, title, level, parent_id, account_type, sort_order, is_system, created_at, updated_at`,
		acc.FiscalYearID, acc.Code, acc.Title, acc.Level, acc.ParentID, acc.Type, acc.SortOrder, acc.IsSystem))
	if db.IsUniqueViolation(err, "uq_chart_of_accounts_code") {
		return Account{}, shared.ErrDuplicateCode
	}
	return created, err
}

func (r *txRepository) Update(ctx context.Context, acc Account) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE chart_of_accounts SET code=$2, title=$3, level=$4, parent_id=$5, account_type=$6, sort_order=$7, updated_at=NOW()
WHERE id=$1`, acc.ID, acc.Code, acc.Title, acc.Level, acc.ParentID, acc.Type, acc.SortOrder)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_chart_of_accounts_code") {
			return shared.ErrDuplicateCode
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) SetLevels(ctx context.Context, levels map[int64]int) error {
	batch := &pgx.Batch{}
	for id, level := range levels {
		batch.Queue(`UPDATE chart_of_accounts SET level=$2, updated_at=NOW() WHERE id=$1`, id, level)
	}
	return r.tx.SendBatch(ctx, batch).Close()
}

func (r *txRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM chart_of_accounts WHERE parent_id=$1`, id).Scan(&n)
	return n, err
}

func (r *txRepository) References(ctx context.Context, id int64) (References, error) {
	var refs References
	err := r.tx.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM journal_lines WHERE account_id=$1),
    (SELECT COUNT(*) FROM cash_accounts WHERE chart_account_id=$1),
    (SELECT COUNT(*) FROM account_mappings WHERE account_id=$1)`, id).
		Scan(&refs.JournalLines, &refs.CashAccounts, &refs.Mappings)
	return refs, err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM chart_of_accounts WHERE id=$1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.ErrAccountReferenced
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) SeedMapping(ctx context.Context, fiscalYearID int64, key string, accountID int64) error {
	return mappings.Seed(ctx, r.tx, fiscalYearID, key, accountID)
}
