package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the read side shared by pgx.Tx and *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextNumber allocates the next document number for a fiscal year and
// sequence name. The upsert holds the sequence row lock until the caller's
// transaction ends, so concurrent allocators are serialized and a rolled back
// transaction releases its number.
func NextNumber(ctx context.Context, q Querier, fiscalYearID int64, sequence string) (int64, error) {
	var next int64
	err := q.QueryRow(ctx, `INSERT INTO document_sequences (fiscal_year_id, doc_type, last_no)
VALUES ($1, $2, 1)
ON CONFLICT (fiscal_year_id, doc_type) DO UPDATE SET last_no = document_sequences.last_no + 1
RETURNING last_no`, fiscalYearID, sequence).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("platform/db: next number %s: %w", sequence, err)
	}
	return next, nil
}
