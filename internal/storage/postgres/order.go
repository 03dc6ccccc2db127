package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/order-engine/internal/domain/inventory"
	"github.com/salesdesk/order-engine/internal/domain/order"
	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

const (
	insertOrderSQL = `INSERT INTO orders (
		id, version, client_id, client_name, client_email, client_phone,
		postal_code, street, number, neighborhood, city, state,
		shipping_method, shipping_fee, discount_code, discount_amount,
		payment_method, status, tracking_code, items,
		subtotal, insurance_fee, grand_total)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	updateOrderSQL = `UPDATE orders SET
		version = version + 1,
		client_id = $3, client_name = $4, client_email = $5, client_phone = $6,
		postal_code = $7, street = $8, number = $9, neighborhood = $10,
		city = $11, state = $12,
		shipping_method = $13, shipping_fee = $14,
		discount_code = $15, discount_amount = $16,
		payment_method = $17, status = $18, tracking_code = $19, items = $20,
		subtotal = $21, insurance_fee = $22, grand_total = $23,
		updated_at = now()
	WHERE id = $1 AND version = $2`

	deleteOrderItemsSQL     = `DELETE FROM order_items WHERE order_id = $1`
	deleteOrderMovementsSQL = `DELETE FROM stock_movements WHERE order_id = $1`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
	VALUES ($1, $2, $3, $4)`

	insertReservationSQL = `INSERT INTO stock_movements (id, product_id, kind, quantity, origin, order_id, note)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectOrderSQL = `SELECT
		id, version, client_id, client_name, client_email, client_phone,
		postal_code, street, number, neighborhood, city, state,
		shipping_method, shipping_fee, discount_code, discount_amount,
		payment_method, status, tracking_code, items,
		subtotal, insurance_fee, grand_total, created_at, updated_at
	FROM orders`

	updateStatusSQL = `UPDATE orders SET status = $2, tracking_code = $3, updated_at = now()
	WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The full
// item snapshot (catalog and manual items alike) is serialized to the JSONB
// items column; relational rows and RESERVED movements exist only for
// catalog items.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save persists the order as one transaction: root upsert, wipe of the
// order's line-item and movement rows, then re-insert from the new state.
// The delete-then-insert protocol is the sole source of truth; no diffing.
// A stale version on update fails with order.ConflictError.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) (string, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return "", fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if o.ID == "" {
		o.ID = uuid.New().String()
		o.Version = 1
		if _, err := tx.Exec(ctx, insertOrderSQL, rootArgs(o, itemsJSON)...); err != nil {
			return "", fmt.Errorf("inserting order %q: %w", o.ID, err)
		}
	} else {
		tag, err := tx.Exec(ctx, updateOrderSQL, rootArgs(o, itemsJSON)...)
		if err != nil {
			return "", fmt.Errorf("updating order %q: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return "", r.staleOrMissing(ctx, tx, o)
		}
		o.Version++
	}

	if _, err := tx.Exec(ctx, deleteOrderItemsSQL, o.ID); err != nil {
		return "", fmt.Errorf("wiping line items for order %q: %w", o.ID, err)
	}
	if _, err := tx.Exec(ctx, deleteOrderMovementsSQL, o.ID); err != nil {
		return "", fmt.Errorf("wiping movements for order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.CatalogItems() {
		batch.Queue(insertOrderItemSQL, o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		batch.Queue(insertReservationSQL,
			uuid.New().String(), item.ProductID, string(inventory.KindReserved),
			item.Quantity, inventory.OriginSale, o.ID, "")
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return "", fmt.Errorf("inserting line items for order %q: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing order %q: %w", o.ID, err)
	}

	return o.ID, nil
}

// staleOrMissing distinguishes a missing row from a concurrent modification
// after an update matched nothing.
func (r *OrderRepository) staleOrMissing(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	var current int64
	err := tx.QueryRow(ctx, `SELECT version FROM orders WHERE id = $1`, o.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking order %q version: %w", o.ID, err)
	}
	return &order.ConflictError{OrderID: o.ID, Version: o.Version}
}

func rootArgs(o *order.Order, itemsJSON []byte) []any {
	var clientID *string
	clientName, clientEmail, clientPhone := "", "", ""
	if o.Client != nil {
		clientID = &o.Client.ID
		clientName = o.Client.Name
		clientEmail = o.Client.Email
		clientPhone = o.Client.Phone
	}
	return []any{
		o.ID, o.Version, clientID, clientName, clientEmail, clientPhone,
		o.Address.PostalCode, o.Address.Street, o.Address.Number,
		o.Address.Neighborhood, o.Address.City, o.Address.State,
		string(o.ShippingMethod), o.ShippingFee, o.DiscountCode, o.DiscountAmount,
		o.PaymentMethod, string(o.Status), o.TrackingCode, itemsJSON,
		o.Subtotal, o.InsuranceFee, o.GrandTotal,
	}
}

// Get loads a single order with its item snapshot.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, selectOrderSQL+` WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// List returns all orders, newest first, with their item snapshots.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		clientID  *string
		client    order.ClientRef
		itemsJSON []byte
		method    string
		status    string
	)
	err := row.Scan(
		&o.ID, &o.Version, &clientID, &client.Name, &client.Email, &client.Phone,
		&o.Address.PostalCode, &o.Address.Street, &o.Address.Number,
		&o.Address.Neighborhood, &o.Address.City, &o.Address.State,
		&method, &o.ShippingFee, &o.DiscountCode, &o.DiscountAmount,
		&o.PaymentMethod, &status, &o.TrackingCode, &itemsJSON,
		&o.Subtotal, &o.InsuranceFee, &o.GrandTotal, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.ShippingMethod = pricing.ShippingMethod(method)
	o.Status = order.Status(status)
	if clientID != nil {
		client.ID = *clientID
		o.Client = &client
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling items: %w", err)
	}
	return &o, nil
}

// UpdateStatus writes the status and tracking code fields without touching
// the rest of the order: transitions carry no other side effects.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, trackingCode string) error {
	tag, err := r.pool.Exec(ctx, updateStatusSQL, id, string(status), trackingCode)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes the order root and reverses its ledger entries in one
// transaction. Line-item rows cascade with the root.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteOrderMovementsSQL, id); err != nil {
		return fmt.Errorf("reversing movements for order %q: %w", id, err)
	}
	tag, err := tx.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete of order %q: %w", id, err)
	}
	return nil
}
