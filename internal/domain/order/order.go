package order

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// manualPrefix marks synthetic line-item IDs that have no product backing.
// Manual items live only in the order's item snapshot: they never generate
// relational line-item rows or ledger movements.
const manualPrefix = "manual-"

// NewManualID returns a fresh synthetic ID for a manual line item.
func NewManualID() string {
	return manualPrefix + uuid.New().String()
}

// IsManualID reports whether the given product ID carries the manual marker.
func IsManualID(id string) bool {
	return strings.HasPrefix(id, manualPrefix)
}

// ClientRef identifies the client an order is sold to. It is nil on a draft
// order until a client is chosen.
type ClientRef struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Address is the delivery address, pre-fillable from a postal-code lookup.
type Address struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// LineItem is one order line. Catalog items reference a real product with the
// unit price copied at add-time; manual items carry a synthetic ID, free-text
// name and an operator-entered price.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Manual reports whether this line item is an ad-hoc manual item.
func (i LineItem) Manual() bool {
	return IsManualID(i.ProductID)
}

// Order is the aggregate root for a sale. Totals are a financial snapshot
// taken at save time, not recomputed live from current catalog prices.
type Order struct {
	ID      string
	Version int64
	Client  *ClientRef
	Address Address

	ShippingMethod pricing.ShippingMethod
	ShippingFee    decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	PaymentMethod  string

	Status       Status
	TrackingCode string
	Items        []LineItem

	Subtotal     decimal.Decimal
	InsuranceFee decimal.Decimal
	GrandTotal   decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogItems returns the subset of items backed by real products. Only
// these produce relational rows and RESERVED movements.
func (o *Order) CatalogItems() []LineItem {
	items := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.Manual() {
			items = append(items, item)
		}
	}
	return items
}

// Repository defines persistence operations for orders. Save replaces the
// full order state atomically: root record, relational line-item rows, and
// RESERVED movements.
type Repository interface {
	Save(ctx context.Context, o *Order) (string, error)
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, trackingCode string) error
	Delete(ctx context.Context, id string) error
}

// Notifier receives a free-text success or failure message after Save.
type Notifier interface {
	Notify(ctx context.Context, message string)
}
