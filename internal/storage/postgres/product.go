package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/order-engine/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, price, stock FROM products
	WHERE active ORDER BY id`

	getProductSQL = `SELECT id, name, price, stock FROM products
	WHERE id = $1 AND active`

	getProductsSQL = `SELECT id, name, price, stock FROM products
	WHERE id = ANY($1) AND active`

	listPaymentMethodsSQL = `SELECT id, name FROM payment_methods
	WHERE active ORDER BY id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListProducts returns all active products ordered by ID.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return scanProducts(rows)
}

// GetByID returns a single product. Returns catalog.ErrNotFound when no
// matching active product exists.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := r.pool.QueryRow(ctx, getProductSQL, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs fetches all matching products in a single query. Missing IDs are
// simply absent from the result.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products: %w", err)
	}
	return scanProducts(rows)
}

// ListPaymentMethods returns all active payment methods.
func (r *CatalogRepository) ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethod, error) {
	rows, err := r.pool.Query(ctx, listPaymentMethodsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	defer rows.Close()

	var methods []catalog.PaymentMethod
	for rows.Next() {
		var m catalog.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	return methods, nil
}

func scanProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	return products, nil
}
