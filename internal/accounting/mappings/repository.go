package mappings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository reads and writes account mappings.
type Repository interface {
	List(ctx context.Context, fiscalYearID int64) ([]AccountMapping, error)
	Get(ctx context.Context, fiscalYearID int64, key string) (AccountMapping, error)
	Set(ctx context.Context, fiscalYearID int64, key string, accountID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context, fiscalYearID int64) ([]AccountMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT fiscal_year_id, key, account_id, created_at, updated_at
FROM account_mappings WHERE fiscal_year_id=$1 ORDER BY key`, fiscalYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.FiscalYearID, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, fiscalYearID int64, key string) (AccountMapping, error) {
	var m AccountMapping
	err := r.db.QueryRow(ctx, `SELECT fiscal_year_id, key, account_id, created_at, updated_at
FROM account_mappings WHERE fiscal_year_id=$1 AND key=$2`, fiscalYearID, key).
		Scan(&m.FiscalYearID, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, fmt.Errorf("%w: %s", shared.ErrMappingNotFound, key)
		}
		return AccountMapping{}, err
	}
	return m, nil
}

func (r *repository) Set(ctx context.Context, fiscalYearID int64, key string, accountID int64) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO account_mappings (fiscal_year_id, key, account_id)
SELECT $1, $2, id FROM chart_of_accounts WHERE id=$3 AND fiscal_year_id=$1
ON CONFLICT (fiscal_year_id, key) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=NOW()`, fiscalYearID, key, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountOutsideYear
	}
	return nil
}

// Lookup resolves key inside an open transaction.
func Lookup(ctx context.Context, q db.Querier, fiscalYearID int64, key string) (int64, error) {
	var accountID int64
	err := q.QueryRow(ctx, `SELECT account_id FROM account_mappings WHERE fiscal_year_id=$1 AND key=$2`, fiscalYearID, key).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", shared.ErrMappingNotFound, key)
	}
	return accountID, err
}

// Seed records key -> account unless an operator already mapped it.
func Seed(ctx context.Context, e internalShared.Execer, fiscalYearID int64, key string, accountID int64) error {
	_, err := e.Exec(ctx, `INSERT INTO account_mappings (fiscal_year_id, key, account_id) VALUES ($1,$2,$3)
ON CONFLICT (fiscal_year_id, key) DO NOTHING`, fiscalYearID, key, accountID)
	return err
}
