package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectUnitPriceSQL = `SELECT unit_price FROM products WHERE name = $1 AND unit = $2`
	listProductsSQL    = `SELECT name, unit, unit_price FROM products ORDER BY name, unit`
	upsertProductSQL   = `INSERT INTO products (name, unit, unit_price, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name, unit) DO UPDATE SET unit_price = EXCLUDED.unit_price, updated_at = now()`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a catalog backed by the products table. Checkouts only read it;
// Upsert serves the seeder.
type Store struct {
	DB querier
}

// NewStore constructs a Store over a pgx pool or connection.
func NewStore(db querier) *Store {
	return &Store{DB: db}
}

// UnitPrice implements Catalog.
func (s *Store) UnitPrice(ctx context.Context, p Product) (float64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("catalog store not configured")
	}
	var price float64
	err := s.DB.QueryRow(ctx, selectUnitPriceSQL, p.Name, p.Unit.String()).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, priceNotFound(p)
		}
		return 0, fmt.Errorf("query unit price: %w", err)
	}
	return price, nil
}

// Products lists every product in the table.
func (s *Store) Products(ctx context.Context) ([]Listing, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("catalog store not configured")
	}
	rows, err := s.DB.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Listing
	for rows.Next() {
		var (
			name  string
			unit  string
			price float64
		)
		if err := rows.Scan(&name, &unit, &price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		u, err := ParseUnit(unit)
		if err != nil {
			return nil, err
		}
		out = append(out, Listing{Product: Product{Name: name, Unit: u}, UnitPrice: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Upsert sets the unit price of l.Product.
func (s *Store) Upsert(ctx context.Context, l Listing) error {
	if _, err := s.DB.Exec(ctx, upsertProductSQL, l.Product.Name, l.Product.Unit.String(), l.UnitPrice); err != nil {
		return fmt.Errorf("upsert product %s/%s: %w", l.Product.Name, l.Product.Unit, err)
	}
	return nil
}
