package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Stock is the denormalized counter kept in sync
// with the movement ledger; it is read-only to the order engine except through
// ledger movements.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// PaymentMethod is a business-configured way of paying for an order.
type PaymentMethod struct {
	ID   string
	Name string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
}
