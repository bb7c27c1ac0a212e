package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/directory"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	Lines(ctx context.Context, id int64) ([]Line, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes invoice persistence and the journal store bound to
// the same transaction.
type TxRepository interface {
	Ledger() journals.TxRepository
	PersonExists(ctx context.Context, id int64) (bool, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	UnitExists(ctx context.Context, id int64) (bool, error)
	NextNumber(ctx context.Context, fiscalYearID int64, typ Type) (int64, error)
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (Invoice, error)
	Lines(ctx context.Context, id int64) ([]Line, error)
	ReplaceLines(ctx context.Context, id int64, lines []Line) ([]Line, error)
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, id int64) (bool, error)
	MarkConfirmed(ctx context.Context, inv Invoice, at time.Time) (bool, error)
	MarkReturned(ctx context.Context, id, entryID int64, at time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const invoiceColumns = `id, fiscal_year_id, invoice_no, invoice_type, person_id, invoice_date, due_date, status, seller_id, project_id,
shipping_cost, extra_additions, extra_deductions, subtotal, discount_total, tax_total, total, description, journal_entry_id,
return_entry_id, created_by, confirmed_at, created_at, updated_at`

type rowQuerier interface {
	db.Querier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.FiscalYearID, &inv.InvoiceNo, &inv.Type, &inv.PersonID, &inv.InvoiceDate, &inv.DueDate, &inv.Status,
		&inv.SellerID, &inv.ProjectID, &inv.ShippingCost, &inv.ExtraAdditions, &inv.ExtraDeductions, &inv.Subtotal, &inv.DiscountTotal,
		&inv.TaxTotal, &inv.Total, &inv.Description, &inv.JournalEntryID, &inv.ReturnEntryID, &inv.CreatedBy, &inv.ConfirmedAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrInvoiceNotFound
	}
	return inv, err
}

func loadLines(ctx context.Context, q rowQuerier, invoiceID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, product_id, unit_id, quantity, unit_price, discount_percent, discount_amount,
tax_percent, tax_amount, line_total, description, sort_order
FROM invoice_lines WHERE invoice_id=$1 ORDER BY sort_order, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &l.UnitID, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.DiscountAmount,
			&l.TaxPercent, &l.TaxAmount, &l.LineTotal, &l.Description, &l.SortOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
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
	if filter.Type != "" {
		add("invoice_type=$%d", filter.Type)
	}
	if filter.Status != "" {
		add("status=$%d", filter.Status)
	}
	if filter.PersonID != 0 {
		add("person_id=$%d", filter.PersonID)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.Query(ctx, query+" ORDER BY invoice_date DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines, err = loadLines(ctx, r.db, id)
	return inv, err
}

func (r *repository) Lines(ctx context.Context, id int64) ([]Line, error) {
	return loadLines(ctx, r.db, id)
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

func (r *txRepository) PersonExists(ctx context.Context, id int64) (bool, error) {
	return directory.PersonExists(ctx, r.tx, id)
}

func (r *txRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	return directory.ProductExists(ctx, r.tx, id)
}

func (r *txRepository) UnitExists(ctx context.Context, id int64) (bool, error) {
	return directory.UnitExists(ctx, r.tx, id)
}

func (r *txRepository) NextNumber(ctx context.Context, fiscalYearID int64, typ Type) (int64, error) {
	return db.NextNumber(ctx, r.tx, fiscalYearID, typ.Sequence())
}

func (r *txRepository) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	created, err := scanInvoice(r.tx.QueryRow(ctx, `INSERT INTO invoices
(fiscal_year_id, invoice_no, invoice_type, person_id, invoice_date, due_date, status, seller_id, project_id,
 shipping_cost, extra_additions, extra_deductions, subtotal, discount_total, tax_total, total, description, created_by)
VALUES ($1,$2,$3,$4,$5,$6,'draft',$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
RETURNING `+invoiceColumns,
		inv.FiscalYearID, inv.InvoiceNo, inv.Type, inv.PersonID, inv.InvoiceDate, inv.DueDate, inv.SellerID, inv.ProjectID,
		shared.Numeric(inv.ShippingCost), shared.Numeric(inv.ExtraAdditions), shared.Numeric(inv.ExtraDeductions),
		shared.Numeric(inv.Subtotal), shared.Numeric(inv.DiscountTotal), shared.Numeric(inv.TaxTotal), shared.Numeric(inv.Total),
		inv.Description, inv.CreatedBy))
	if db.IsUniqueViolation(err, "uq_invoices_number") {
		return Invoice{}, shared.ErrNumberTaken
	}
	return created, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Lines(ctx context.Context, id int64) ([]Line, error) {
	return loadLines(ctx, r.tx, id)
}

func (r *txRepository) ReplaceLines(ctx context.Context, id int64, lines []Line) ([]Line, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, id); err != nil {
		return nil, err
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO invoice_lines (invoice_id, product_id, unit_id, quantity, unit_price, discount_percent, discount_amount,
tax_percent, tax_amount, line_total, description, sort_order)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
			id, l.ProductID, l.UnitID, l.Quantity.String(), shared.Numeric(l.UnitPrice), l.DiscountPercent.String(),
			shared.Numeric(l.DiscountAmount), l.TaxPercent.String(), shared.Numeric(l.TaxAmount), shared.Numeric(l.LineTotal),
			l.Description, l.SortOrder)
	}
	results := r.tx.SendBatch(ctx, batch)
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.InvoiceID = id
		if err := results.QueryRow().Scan(&l.ID); err != nil {
			_ = results.Close()
			return nil, err
		}
		out = append(out, l)
	}
	return out, results.Close()
}

func (r *txRepository) Update(ctx context.Context, inv Invoice) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET person_id=$2, invoice_date=$3, due_date=$4, seller_id=$5, project_id=$6,
shipping_cost=$7, extra_additions=$8, extra_deductions=$9, subtotal=$10, discount_total=$11, tax_total=$12, total=$13,
description=$14, updated_at=NOW() WHERE id=$1 AND status='draft'`,
		inv.ID, inv.PersonID, inv.InvoiceDate, inv.DueDate, inv.SellerID, inv.ProjectID,
		shared.Numeric(inv.ShippingCost), shared.Numeric(inv.ExtraAdditions), shared.Numeric(inv.ExtraDeductions),
		shared.Numeric(inv.Subtotal), shared.Numeric(inv.DiscountTotal), shared.Numeric(inv.TaxTotal), shared.Numeric(inv.Total),
		inv.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM invoices WHERE id=$1 AND status='draft'`, id)
	if db.IsForeignKeyViolation(err) {
		return false, fmt.Errorf("%w: invoice %d is referenced by a voucher", internalShared.ErrReferenced, id)
	}
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkConfirmed stores the recomputed totals, links the journal entry and
// flips the status in one statement.
func (r *txRepository) MarkConfirmed(ctx context.Context, inv Invoice, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status='confirmed', journal_entry_id=$2, subtotal=$3, discount_total=$4,
tax_total=$5, total=$6, confirmed_at=$7, updated_at=$7 WHERE id=$1 AND status='draft'`,
		inv.ID, inv.JournalEntryID, shared.Numeric(inv.Subtotal), shared.Numeric(inv.DiscountTotal), shared.Numeric(inv.TaxTotal),
		shared.Numeric(inv.Total), at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *txRepository) MarkReturned(ctx context.Context, id, entryID int64, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status='returned', return_entry_id=$2, updated_at=$3
WHERE id=$1 AND status='confirmed'`, id, entryID, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
