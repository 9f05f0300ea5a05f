package offer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/supermarket/internal/catalog"
)

const (
	listOffersSQL  = `SELECT product_name, product_unit, offer_type, argument FROM offers ORDER BY product_name, product_unit`
	upsertOfferSQL = `INSERT INTO offers (product_name, product_unit, offer_type, argument, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (product_name, product_unit)
DO UPDATE SET offer_type = EXCLUDED.offer_type, argument = EXCLUDED.argument, updated_at = now()`
)

type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists offers in the offers table, one row per product.
type Store struct {
	DB dbtx
}

// LoadInto installs every stored offer into reg and returns how many were loaded.
func (s Store) LoadInto(ctx context.Context, reg *Registry) (int, error) {
	rows, err := s.DB.Query(ctx, listOffersSQL)
	if err != nil {
		return 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	loaded := 0
	for rows.Next() {
		var (
			name, unit, kind string
			argument         float64
		)
		if err := rows.Scan(&name, &unit, &kind, &argument); err != nil {
			return loaded, fmt.Errorf("scan offer: %w", err)
		}
		u, err := catalog.ParseUnit(unit)
		if err != nil {
			return loaded, err
		}
		t, err := ParseType(kind)
		if err != nil {
			return loaded, err
		}
		reg.Set(t, catalog.Product{Name: name, Unit: u}, argument)
		loaded++
	}
	if err := rows.Err(); err != nil {
		return loaded, fmt.Errorf("list offers: %w", err)
	}
	return loaded, nil
}

// Save upserts o.
func (s Store) Save(ctx context.Context, o Offer) error {
	if _, err := s.DB.Exec(ctx, upsertOfferSQL, o.Product.Name, o.Product.Unit.String(), o.Type.String(), o.Argument); err != nil {
		return fmt.Errorf("save offer %s/%s: %w", o.Product.Name, o.Product.Unit, err)
	}
	return nil
}
