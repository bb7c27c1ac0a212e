package cheques

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/cashaccounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/directory"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Cheque, error)
	Get(ctx context.Context, id int64) (Cheque, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type TxRepository interface {
	CashAccount(ctx context.Context, id int64) (cashaccounts.CashAccount, error)
	PersonExists(ctx context.Context, id int64) (bool, error)
	VoucherExists(ctx context.Context, id int64) (bool, error)
	PostedEntryExists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, c Cheque) (Cheque, error)
	GetForUpdate(ctx context.Context, id int64) (Cheque, error)
	Update(ctx context.Context, c Cheque) error
	Delete(ctx context.Context, id int64) (bool, error)
	// SetStatus moves from -> to only if the row is still in from.
	SetStatus(ctx context.Context, id int64, from, to Status, at time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const chequeColumns = `id, type, check_no, check_date, due_date, amount, cash_account_id, person_id, description,
receipt_voucher_id, journal_entry_id, status, status_changed_at, created_by, created_at, updated_at`

func scanCheque(row pgx.Row) (Cheque, error) {
	var c Cheque
	err := row.Scan(&c.ID, &c.Type, &c.CheckNo, &c.CheckDate, &c.DueDate, &c.Amount, &c.CashAccountID, &c.PersonID, &c.Description,
		&c.ReceiptVoucherID, &c.JournalEntryID, &c.Status, &c.StatusChangedAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cheque{}, shared.ErrChequeNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Cheque, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		where = append(where, fmt.Sprintf("due_date<=$%d", len(args)))
	}
	query := `SELECT ` + chequeColumns + ` FROM checks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.Query(ctx, query+" ORDER BY due_date, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Cheque
	for rows.Next() {
		c, err := scanCheque(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Cheque, error) {
	return scanCheque(r.db.QueryRow(ctx, `SELECT `+chequeColumns+` FROM checks WHERE id=$1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) CashAccount(ctx context.Context, id int64) (cashaccounts.CashAccount, error) {
	return cashaccounts.Load(ctx, r.tx, id)
}

func (r *txRepository) PersonExists(ctx context.Context, id int64) (bool, error) {
	return directory.PersonExists(ctx, r.tx, id)
}

func (r *txRepository) VoucherExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM receipt_vouchers WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) PostedEntryExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE id=$1 AND status='posted')`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) Insert(ctx context.Context, c Cheque) (Cheque, error) {
	return scanCheque(r.tx.QueryRow(ctx, `INSERT INTO checks
(type, check_no, check_date, due_date, amount, cash_account_id, person_id, description, receipt_voucher_id, journal_entry_id, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'in_safe',$11)
RETURNING `+chequeColumns,
		c.Type, c.CheckNo, c.CheckDate, c.DueDate, shared.Numeric(c.Amount), c.CashAccountID, c.PersonID, c.Description, c.ReceiptVoucherID, c.JournalEntryID, c.CreatedBy))
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Cheque, error) {
	return scanCheque(r.tx.QueryRow(ctx, `SELECT `+chequeColumns+` FROM checks WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Update(ctx context.Context, c Cheque) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE checks SET type=$2, check_no=$3, check_date=$4, due_date=$5, amount=$6, cash_account_id=$7,
person_id=$8, description=$9, receipt_voucher_id=$10, journal_entry_id=$11, updated_at=NOW() WHERE id=$1 AND status='in_safe'`,
		c.ID, c.Type, c.CheckNo, c.CheckDate, c.DueDate, shared.Numeric(c.Amount), c.CashAccountID, c.PersonID, c.Description, c.ReceiptVoucherID, c.JournalEntryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM checks WHERE id=$1 AND status='in_safe'`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, from, to Status, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE checks SET status=$3, status_changed_at=$4, updated_at=$4 WHERE id=$1 AND status=$2`, id, from, to, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
