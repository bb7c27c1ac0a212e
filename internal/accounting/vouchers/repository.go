package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/cashaccounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/directory"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// SequenceName is the document_sequences key for voucher numbers.
const SequenceName = "voucher"

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Voucher, error)
	Get(ctx context.Context, id int64) (Voucher, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes voucher persistence and the journal store bound to
// the same transaction.
type TxRepository interface {
	Ledger() journals.TxRepository
	CashAccount(ctx context.Context, id int64) (cashaccounts.CashAccount, error)
	PersonExists(ctx context.Context, id int64) (bool, error)
	InvoiceExists(ctx context.Context, id int64) (bool, error)
	NextNumber(ctx context.Context, fiscalYearID int64) (int64, error)
	Insert(ctx context.Context, v Voucher) (Voucher, error)
	GetForUpdate(ctx context.Context, id int64) (Voucher, error)
	Update(ctx context.Context, v Voucher) error
	Delete(ctx context.Context, id int64) (bool, error)
	MarkPosted(ctx context.Context, id, entryID int64, at time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const voucherColumns = `id, fiscal_year_id, voucher_no, voucher_date, type, cash_account_id, transfer_to_cash_account_id, person_id,
counter_account_id, amount, bank_fee, description, invoice_id, project_id, journal_entry_id, status, created_by, posted_at, created_at, updated_at`

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.FiscalYearID, &v.VoucherNo, &v.VoucherDate, &v.Type, &v.CashAccountID, &v.TransferToCashAccountID,
		&v.PersonID, &v.CounterAccountID, &v.Amount, &v.BankFee, &v.Description, &v.InvoiceID, &v.ProjectID, &v.JournalEntryID,
		&v.Status, &v.CreatedBy, &v.PostedAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, shared.ErrVoucherNotFound
	}
	return v, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Voucher, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.FiscalYearID != 0 {
		add("fiscal_year_id=$%d", filter.FiscalYearID)
	}
	if filter.Status != "" {
		add("status=$%d", filter.Status)
	}
	if filter.Type != "" {
		add("type=$%d", filter.Type)
	}
	if filter.CashAccountID != 0 {
		add("cash_account_id=$%d", filter.CashAccountID)
	}
	query := `SELECT ` + voucherColumns + ` FROM receipt_vouchers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.Query(ctx, query+" ORDER BY fiscal_year_id DESC, voucher_no DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Voucher, error) {
	return scanVoucher(r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM receipt_vouchers WHERE id=$1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: journals.NewTxRepository(tx)})
	})
}

func (r *repository) WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.db, db.SequenceTx, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: journals.NewTxRepository(tx)})
	})
}

type txRepository struct {
	tx     pgx.Tx
	ledger journals.TxRepository
}

func (r *txRepository) Ledger() journals.TxRepository {
	return r.ledger
}

func (r *txRepository) CashAccount(ctx context.Context, id int64) (cashaccounts.CashAccount, error) {
	return cashaccounts.Load(ctx, r.tx, id)
}

func (r *txRepository) PersonExists(ctx context.Context, id int64) (bool, error) {
	return directory.PersonExists(ctx, r.tx, id)
}

func (r *txRepository) InvoiceExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (r *txRepository) NextNumber(ctx context.Context, fiscalYearID int64) (int64, error) {
	return db.NextNumber(ctx, r.tx, fiscalYearID, SequenceName)
}

func (r *txRepository) Insert(ctx context.Context, v Voucher) (Voucher, error) {
	created, err := scanVoucher(r.tx.QueryRow(ctx, `INSERT INTO receipt_vouchers
(fiscal_year_id, voucher_no, voucher_date, type, cash_account_id, transfer_to_cash_account_id, person_id, counter_account_id,
 amount, bank_fee, description, invoice_id, project_id, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,'draft',$14)
RETURNING `+voucherColumns,
		v.FiscalYearID, v.VoucherNo, v.VoucherDate, v.Type, v.CashAccountID, v.TransferToCashAccountID, v.PersonID, v.CounterAccountID,
		shared.Numeric(v.Amount), shared.Numeric(v.BankFee), v.Description, v.InvoiceID, v.ProjectID, v.CreatedBy))
	if db.IsUniqueViolation(err, "uq_receipt_vouchers_number") {
		return Voucher{}, shared.ErrNumberTaken
	}
	return created, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Voucher, error) {
	return scanVoucher(r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM receipt_vouchers WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Update(ctx context.Context, v Voucher) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE receipt_vouchers SET voucher_date=$2, type=$3, cash_account_id=$4, transfer_to_cash_account_id=$5,
person_id=$6, counter_account_id=$7, amount=$8, bank_fee=$9, description=$10, invoice_id=$11, project_id=$12, updated_at=NOW()
WHERE id=$1 AND status='draft'`,
		v.ID, v.VoucherDate, v.Type, v.CashAccountID, v.TransferToCashAccountID, v.PersonID, v.CounterAccountID,
		shared.Numeric(v.Amount), shared.Numeric(v.BankFee), v.Description, v.InvoiceID, v.ProjectID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM receipt_vouchers WHERE id=$1 AND status='draft'`, id)
	if db.IsForeignKeyViolation(err) {
		return false, fmt.Errorf("%w: voucher %d is referenced by a cheque", internalShared.ErrReferenced, id)
	}
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkPosted links the journal entry and flips the status in one statement.
func (r *txRepository) MarkPosted(ctx context.Context, id, entryID int64, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE receipt_vouchers SET status='posted', journal_entry_id=$2, posted_at=$3, updated_at=$3
WHERE id=$1 AND status='draft'`, id, entryID, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
