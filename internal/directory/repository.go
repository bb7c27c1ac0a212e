package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Repository reads directory records.
type Repository interface {
	Person(ctx context.Context, id int64) (Person, error)
	Product(ctx context.Context, id int64) (Product, error)
	Unit(ctx context.Context, id int64) (Unit, error)
	PersonUsage(ctx context.Context, id int64) (PersonUsage, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Person(ctx context.Context, id int64) (Person, error) {
	var p Person
	err := r.db.QueryRow(ctx, `SELECT id, name, kind, created_at FROM persons WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Kind, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, fmt.Errorf("person %d: %w", id, shared.ErrPersonNotFound)
	}
	return p, err
}

func (r *repository) Product(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT id, name, unit_id FROM products WHERE id=$1`, id).Scan(&p.ID, &p.Name, &p.UnitID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrProductNotFound)
	}
	return p, err
}

func (r *repository) Unit(ctx context.Context, id int64) (Unit, error) {
	var u Unit
	err := r.db.QueryRow(ctx, `SELECT id, name FROM units WHERE id=$1`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, fmt.Errorf("unit %d: %w", id, shared.ErrUnitNotFound)
	}
	return u, err
}

func (r *repository) PersonUsage(ctx context.Context, id int64) (PersonUsage, error) {
	var u PersonUsage
	err := r.db.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM invoices WHERE person_id=$1),
    (SELECT COUNT(*) FROM receipt_vouchers WHERE person_id=$1),
    (SELECT COUNT(*) FROM checks WHERE person_id=$1)`, id).Scan(&u.Invoices, &u.Vouchers, &u.Cheques)
	return u, err
}

// PersonExists checks a person id through q, which may be a transaction.
func PersonExists(ctx context.Context, q db.Querier, id int64) (bool, error) {
	return exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM persons WHERE id=$1)`, id)
}

// ProductExists checks a product id through q.
func ProductExists(ctx context.Context, q db.Querier, id int64) (bool, error) {
	return exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, id)
}

// UnitExists checks a unit id through q.
func UnitExists(ctx context.Context, q db.Querier, id int64) (bool, error) {
	return exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM units WHERE id=$1)`, id)
}

func exists(ctx context.Context, q db.Querier, sql string, id int64) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, sql, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
