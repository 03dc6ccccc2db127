// Package inventory models the append-only stock movement ledger. Movements
// are created and superseded (deleted then re-inserted), never mutated.
package inventory

import (
	"context"
	"time"
)

// Kind enumerates movement kinds.
type Kind string

const (
	KindIn       Kind = "IN"
	KindOut      Kind = "OUT"
	KindReserved Kind = "RESERVED"
	KindAdjust   Kind = "ADJUST"
)

// OriginSale tags movements produced by order reservation.
const OriginSale = "sale"

// Movement is one append-only ledger fact.
type Movement struct {
	ID        string
	ProductID string
	Kind      Kind
	Quantity  int
	Origin    string
	OrderID   string
	Note      string
	CreatedAt time.Time
}

// Delta is the signed stock effect of the movement: IN and positive ADJUST
// increase stock, OUT and RESERVED consume it.
func (m Movement) Delta() int {
	switch m.Kind {
	case KindIn:
		return m.Quantity
	case KindOut, KindReserved:
		return -m.Quantity
	case KindAdjust:
		return m.Quantity
	default:
		return 0
	}
}

// Available folds movements over a base stock counter. Reservation is
// advisory: the result may go negative and callers decide how to surface it.
func Available(baseStock int, movements []Movement) int {
	stock := baseStock
	for _, m := range movements {
		if m.Kind == KindReserved {
			stock += m.Delta()
		}
	}
	return stock
}

// Repository provides ledger reads and writes.
type Repository interface {
	// AvailableStock returns the denormalized product stock minus open
	// RESERVED quantity for the product.
	AvailableStock(ctx context.Context, productID string) (int, error)
	// ListByOrder returns the movements referencing the given order.
	ListByOrder(ctx context.Context, orderID string) ([]Movement, error)
	// Append inserts a movement and applies its delta to the product's
	// denormalized stock counter.
	Append(ctx context.Context, m Movement) error
}
