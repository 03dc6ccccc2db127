// Package kanban maps board gestures (drag/drop, quick advance/revert) onto
// order status transitions and groups order snapshots into fixed columns.
// The controller keeps no persistent state of its own.
package kanban

import (
	"context"
	"fmt"

	"github.com/salesdesk/order-engine/internal/domain/order"
)

// Columns are the seven fixed board columns, matching the pipeline states.
// Orders with an unrecognized status fall back into the pending column.
var Columns = order.Pipeline

// Column holds one board column with its current order snapshots.
type Column struct {
	Status order.Status
	Orders []order.Order
}

// Board is a point-in-time view over the current orders grouped by status.
type Board struct {
	Columns []Column
}

// StaleColumnError indicates a drag whose source column no longer matches
// the order's actual status: the board snapshot went stale.
type StaleColumnError struct {
	OrderID string
	Column  order.Status
	Actual  order.Status
}

func (e *StaleColumnError) Error() string {
	return fmt.Sprintf("order %s is in column %s, not %s; refresh the board", e.OrderID, e.Actual, e.Column)
}

// Transitioner is the slice of the order service the controller drives.
type Transitioner interface {
	Transition(ctx context.Context, id string, target order.Status, trackingCode string) error
}

// Controller orchestrates board reads and drag-driven transitions.
type Controller struct {
	orders order.Repository
	svc    Transitioner
}

// NewController creates a Controller over the given read model and
// transition service.
func NewController(orders order.Repository, svc Transitioner) *Controller {
	return &Controller{orders: orders, svc: svc}
}

// Snapshot loads all orders and groups them into the fixed columns.
func (c *Controller) Snapshot(ctx context.Context) (*Board, error) {
	all, err := c.orders.List(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[order.Status][]order.Order, len(Columns))
	for _, o := range all {
		status := o.Status
		if status == order.StatusCancelled {
			// Cancelled orders leave the board.
			continue
		}
		if !status.Known() {
			status = order.StatusPending
		}
		byStatus[status] = append(byStatus[status], o)
	}

	board := &Board{Columns: make([]Column, len(Columns))}
	for i, status := range Columns {
		board.Columns[i] = Column{Status: status, Orders: byStatus[status]}
	}
	return board, nil
}

// MoveOrder applies a drag from one column to another. The gesture carries no
// domain rule beyond identifying source and destination: the transition is
// the same as any other status write. A move to shipped may carry a tracking
// code solicited from the operator; skipping it is fine.
func (c *Controller) MoveOrder(ctx context.Context, id string, from, to order.Status, trackingCode string) error {
	o, err := c.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != from {
		return &StaleColumnError{OrderID: id, Column: from, Actual: o.Status}
	}
	return c.svc.Transition(ctx, id, to, trackingCode)
}

// QuickAdvance moves the order one column forward. At the end of the
// pipeline it is a no-op and returns the current status unchanged.
func (c *Controller) QuickAdvance(ctx context.Context, id string) (order.Status, error) {
	return c.quickMove(ctx, id, order.NextStatus)
}

// QuickRevert moves the order one column back. At the start of the pipeline
// it is a no-op and returns the current status unchanged.
func (c *Controller) QuickRevert(ctx context.Context, id string) (order.Status, error) {
	return c.quickMove(ctx, id, order.PreviousStatus)
}

func (c *Controller) quickMove(ctx context.Context, id string, step func(order.Status) (order.Status, bool)) (order.Status, error) {
	o, err := c.orders.Get(ctx, id)
	if err != nil {
		return "", err
	}

	target, ok := step(o.Status)
	if !ok {
		return o.Status, nil
	}

	if err := c.svc.Transition(ctx, id, target, ""); err != nil {
		return "", err
	}
	return target, nil
}
