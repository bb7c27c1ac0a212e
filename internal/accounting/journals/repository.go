package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// SequenceName is the document_sequences key for journal numbers.
const SequenceName = "journal"

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	Lines(ctx context.Context, id int64) ([]JournalLine, error)
	// WithTx runs status transitions at RepeatableRead.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	// WithCreateTx runs every unit of work that allocates a journal number at
	// ReadCommitted. Row locks on the sequence and on the source document
	// serialize callers; exactly-once rests on the draft status check.
	WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Vouchers and
// invoices obtain one bound to their own transaction through NewTxRepository.
type TxRepository interface {
	FiscalYear(ctx context.Context, id int64) (fiscalyears.FiscalYear, error)
	AccountYears(ctx context.Context, ids []int64) (map[int64]int64, error)
	ResolveMapping(ctx context.Context, fiscalYearID int64, key string) (int64, error)
	NextNumber(ctx context.Context, fiscalYearID int64) (int64, error)
	InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]JournalLine, error)
	GetForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	Lines(ctx context.Context, id int64) ([]JournalLine, error)
	UpdateHeader(ctx context.Context, e JournalEntry) error
	DeleteLines(ctx context.Context, entryID int64) error
	MarkPosted(ctx context.Context, id int64, at time.Time) (bool, error)
	DeleteDraft(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const entryColumns = `id, fiscal_year_id, voucher_no, voucher_date, description, reference_type, reference_id, source_key, status, created_by, posted_at, created_at, updated_at`

type rowQuerier interface {
	db.Querier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.FiscalYearID, &e.VoucherNo, &e.VoucherDate, &e.Description, &e.ReferenceType, &e.ReferenceID,
		&e.SourceKey, &e.Status, &e.CreatedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	return e, err
}

func loadLines(ctx context.Context, q rowQuerier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description, sort_order
FROM journal_lines WHERE entry_id=$1 ORDER BY sort_order, id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.Description, &l.SortOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.FiscalYearID != 0 {
		args = append(args, filter.FiscalYearID)
		where = append(where, fmt.Sprintf("fiscal_year_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fiscal_year_id DESC, voucher_no DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
}

func (r *repository) Lines(ctx context.Context, id int64) ([]JournalLine, error) {
	return loadLines(ctx, r.db, id)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

func (r *repository) WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.db, db.SequenceTx, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds the journal store to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) FiscalYear(ctx context.Context, id int64) (fiscalyears.FiscalYear, error) {
	if id == 0 {
		return fiscalyears.LoadActive(ctx, r.tx)
	}
	return fiscalyears.Load(ctx, r.tx, id)
}

func (r *txRepository) AccountYears(ctx context.Context, ids []int64) (map[int64]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, fiscal_year_id FROM chart_of_accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]int64, len(ids))
	for rows.Next() {
		var id, fy int64
		if err := rows.Scan(&id, &fy); err != nil {
			return nil, err
		}
		out[id] = fy
	}
	return out, rows.Err()
}

func (r *txRepository) ResolveMapping(ctx context.Context, fiscalYearID int64, key string) (int64, error) {
	return mappings.Lookup(ctx, r.tx, fiscalYearID, key)
}

func (r *txRepository) NextNumber(ctx context.Context, fiscalYearID int64) (int64, error) {
	return db.NextNumber(ctx, r.tx, fiscalYearID, SequenceName)
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	created, err := scanEntry(r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(fiscal_year_id, voucher_no, voucher_date, description, reference_type, reference_id, source_key, status, created_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+entryColumns,
		e.FiscalYearID, e.VoucherNo, e.VoucherDate, e.Description, e.ReferenceType, e.ReferenceID, e.SourceKey, e.Status, e.CreatedBy, e.PostedAt))
	switch {
	case db.IsUniqueViolation(err, "uq_journal_entries_source_key"):
		return JournalEntry{}, shared.ErrSourceAlreadyLinked
	case db.IsUniqueViolation(err, "uq_journal_entries_voucher_no"):
		return JournalEntry{}, shared.ErrNumberTaken
	}
	return created, err
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for idx, line := range lines {
		l := JournalLine{EntryID: entryID, AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit, Description: line.Description, SortOrder: idx}
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description, sort_order)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`, entryID, line.AccountID, shared.Numeric(line.Debit), shared.Numeric(line.Credit), line.Description, idx).Scan(&l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Lines(ctx context.Context, id int64) ([]JournalLine, error) {
	return loadLines(ctx, r.tx, id)
}

func (r *txRepository) UpdateHeader(ctx context.Context, e JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET voucher_date=$2, description=$3, updated_at=NOW() WHERE id=$1 AND status='draft'`,
		e.ID, e.VoucherDate, e.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID)
	return err
}

// MarkPosted is the compare-and-set on status; false means another caller won.
func (r *txRepository) MarkPosted(ctx context.Context, id int64, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='posted', posted_at=$2, updated_at=$2 WHERE id=$1 AND status='draft'`, id, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *txRepository) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1 AND status='draft'`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
