package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/order-engine/internal/domain/catalog"
	"github.com/salesdesk/order-engine/internal/domain/inventory"
)

const (
	availableStockSQL = `SELECT p.stock - COALESCE(
		(SELECT SUM(m.quantity) FROM stock_movements m
		 WHERE m.product_id = p.id AND m.kind = 'RESERVED'), 0)
	FROM products p WHERE p.id = $1`

	listMovementsByOrderSQL = `SELECT id, product_id, kind, quantity, origin,
		COALESCE(order_id, ''), note, created_at
	FROM stock_movements WHERE order_id = $1 ORDER BY created_at`

	insertMovementSQL = `INSERT INTO stock_movements
		(id, product_id, kind, quantity, origin, order_id, note)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	applyStockDeltaSQL = `UPDATE products SET stock = stock + $2 WHERE id = $1`
)

var _ inventory.Repository = (*MovementRepository)(nil)

// MovementRepository implements the stock movement ledger on PostgreSQL.
type MovementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository returns a MovementRepository that uses the given pool.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// AvailableStock returns the denormalized product counter minus the open
// RESERVED quantity. The result may be negative: reservation is advisory.
func (r *MovementRepository) AvailableStock(ctx context.Context, productID string) (int, error) {
	var available int
	err := r.pool.QueryRow(ctx, availableStockSQL, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, catalog.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("computing available stock for %q: %w", productID, err)
	}
	return available, nil
}

// ListByOrder returns the movements referencing the given order.
func (r *MovementRepository) ListByOrder(ctx context.Context, orderID string) ([]inventory.Movement, error) {
	rows, err := r.pool.Query(ctx, listMovementsByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing movements for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var movements []inventory.Movement
	for rows.Next() {
		var (
			m    inventory.Movement
			kind string
		)
		err := rows.Scan(&m.ID, &m.ProductID, &kind, &m.Quantity, &m.Origin, &m.OrderID, &m.Note, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		m.Kind = inventory.Kind(kind)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing movements for order %q: %w", orderID, err)
	}
	return movements, nil
}

// Append inserts a movement and applies its delta to the product's
// denormalized stock counter, in one transaction. RESERVED movements do not
// touch the counter: they only reduce availability.
func (r *MovementRepository) Append(ctx context.Context, m inventory.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertMovementSQL,
		m.ID, m.ProductID, string(m.Kind), m.Quantity, m.Origin, m.OrderID, m.Note)
	if err != nil {
		return fmt.Errorf("inserting movement for %q: %w", m.ProductID, err)
	}

	if m.Kind != inventory.KindReserved {
		if _, err := tx.Exec(ctx, applyStockDeltaSQL, m.ProductID, m.Delta()); err != nil {
			return fmt.Errorf("applying stock delta for %q: %w", m.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing movement for %q: %w", m.ProductID, err)
	}
	return nil
}
