package cashaccounts

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]CashAccount, error)
	Get(ctx context.Context, id int64) (CashAccount, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (CashAccount, error)
	ChartAccountExists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, acc CashAccount) (CashAccount, error)
	Update(ctx context.Context, acc CashAccount) error
	CountReferences(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectColumns = `SELECT id, name, type, code, bank_name, account_no, card_no, iban, chart_account_id, is_active, sort_order, created_at, updated_at FROM cash_accounts`

func scanCashAccount(row pgx.Row) (CashAccount, error) {
	var a CashAccount
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Code, &a.BankName, &a.AccountNo, &a.CardNo, &a.IBAN, &a.ChartAccountID, &a.IsActive, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CashAccount{}, shared.ErrCashAccountNotFound
	}
	return a, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]CashAccount, error) {
	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, "type=$1")
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY sort_order, code`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashAccount
	for rows.Next() {
		a, err := scanCashAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (CashAccount, error) {
	return scanCashAccount(r.db.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
}

// Load reads a cash account through q, which may be another package's transaction.
func Load(ctx context.Context, q db.Querier, id int64) (CashAccount, error) {
	return scanCashAccount(q.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (CashAccount, error) {
	return scanCashAccount(r.tx.QueryRow(ctx, selectColumns+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) ChartAccountExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chart_of_accounts WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) Insert(ctx context.Context, acc CashAccount) (CashAccount, error) {
	created, err := scanCashAccount(r.tx.QueryRow(ctx, `INSERT INTO cash_accounts (name, type, code, bank_name, account_no, card_no, iban, chart_account_id, is_active, sort_order)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, name, type, code, bank_name, account_no, card_no, iban, chart_account_id, is_active, sort_order, created_at, updated_at`,
		acc.Name, acc.Type, acc.Code, acc.BankName, acc.AccountNo, acc.CardNo, acc.IBAN, acc.ChartAccountID, acc.IsActive, acc.SortOrder))
	if db.IsUniqueViolation(err, "uq_cash_accounts_code") {
		return CashAccount{}, shared.ErrDuplicateCashCode
	}
	return created, err
}

func (r *txRepository) Update(ctx context.Context, acc CashAccount) error {
	_, err := r.tx.Exec(ctx, `UPDATE cash_accounts SET name=$2, type=$3, code=$4, bank_name=$5, account_no=$6, card_no=$7, iban=$8,
chart_account_id=$9, is_active=$10, sort_order=$11, updated_at=NOW() WHERE id=$1`,
		acc.ID, acc.Name, acc.Type, acc.Code, acc.BankName, acc.AccountNo, acc.CardNo, acc.IBAN, acc.ChartAccountID, acc.IsActive, acc.SortOrder)
	if db.IsUniqueViolation(err, "uq_cash_accounts_code") {
		return shared.ErrDuplicateCashCode
	}
	return err
}

func (r *txRepository) CountReferences(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM receipt_vouchers WHERE cash_account_id=$1 OR transfer_to_cash_account_id=$1) +
    (SELECT COUNT(*) FROM checks WHERE cash_account_id=$1)`, id).Scan(&n)
	return n, err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM cash_accounts WHERE id=$1`, id)
	if db.IsForeignKeyViolation(err) {
		return shared.ErrCashAccountReferenced
	}
	return err
}
