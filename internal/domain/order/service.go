package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/salesdesk/order-engine/internal/domain/auth"
	"github.com/salesdesk/order-engine/internal/domain/catalog"
	"github.com/salesdesk/order-engine/internal/domain/inventory"
	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// Service drives the order lifecycle: validated saves with financial
// snapshots and inventory reservation, pipeline transitions, and deletes
// that reverse ledger entries.
type Service struct {
	orders   Repository
	products catalog.Repository
	ledger   inventory.Repository
	fees     pricing.FeeTable
	notifier Notifier
}

// NewService creates a Service with the required domain dependencies.
func NewService(
	orders Repository,
	products catalog.Repository,
	ledger inventory.Repository,
	fees pricing.FeeTable,
	notifier Notifier,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		ledger:   ledger,
		fees:     fees,
		notifier: notifier,
	}
}

// SaveResult holds the outcome of a successful save.
type SaveResult struct {
	OrderID string
	Totals  pricing.Totals

	// Oversold lists product IDs whose reservations now exceed available
	// stock. Reservation is advisory: the save still succeeds.
	Oversold []string
}

// Save validates the order, recomputes its financial snapshot, and persists
// it through the repository's atomic replace-on-save protocol. Item edits on
// a locked order require an elevated principal.
func (s *Service) Save(ctx context.Context, p auth.Principal, o *Order) (*SaveResult, error) {
	if err := s.validate(o); err != nil {
		return nil, err
	}

	catalogItems := o.CatalogItems()
	if err := s.checkProducts(ctx, catalogItems); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o.UpdatedAt = now
	if o.ID == "" {
		o.Status = StatusPending
		o.CreatedAt = now
	} else {
		current, err := s.orders.Get(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if current.Status.Locked() && !p.Elevated() && itemsChanged(current.Items, o.Items) {
			return nil, &LockViolationError{OrderID: o.ID, Status: current.Status}
		}
		// Status moves only through Transition.
		o.Status = current.Status
		o.TrackingCode = current.TrackingCode
		o.CreatedAt = current.CreatedAt
	}

	totals, err := s.quote(o)
	if err != nil {
		return nil, err
	}
	totals = totals.Round()
	o.ShippingFee = totals.ShippingFee
	o.DiscountAmount = totals.DiscountAmount
	o.Subtotal = totals.Subtotal
	o.InsuranceFee = totals.InsuranceFee
	o.GrandTotal = totals.GrandTotal

	id, err := s.orders.Save(ctx, o)
	if err != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("order save failed: %v", err))
		return nil, errors.Wrap(err, "save order")
	}

	result := &SaveResult{
		OrderID:  id,
		Totals:   totals,
		Oversold: s.oversold(ctx, catalogItems),
	}
	s.notifier.Notify(ctx, fmt.Sprintf("order %s saved, total %s", id, totals.GrandTotal.StringFixed(2)))

	return result, nil
}

// Quote recomputes totals for the given order without persisting anything.
// Used by the editing surface for live recalculation; amounts stay unrounded.
func (s *Service) Quote(o *Order) (pricing.Totals, error) {
	return s.quote(o)
}

func (s *Service) quote(o *Order) (pricing.Totals, error) {
	items := make([]pricing.Item, len(o.Items))
	for i, item := range o.Items {
		items[i] = pricing.Item{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return pricing.Calculate(pricing.Input{
		Items:          items,
		Method:         o.ShippingMethod,
		Fees:           s.fees,
		DiscountCode:   o.DiscountCode,
		ManualDiscount: o.DiscountAmount,
	})
}

func (s *Service) validate(o *Order) error {
	if o.Client == nil || o.Client.ID == "" {
		return ErrClientRequired
	}
	if len(o.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return &InvalidQuantityError{ProductID: item.ProductID}
		}
		if item.Manual() {
			if item.Name == "" {
				return &ManualItemError{ProductID: item.ProductID, Reason: "name is blank"}
			}
			if !item.UnitPrice.IsPositive() {
				return &ManualItemError{ProductID: item.ProductID, Reason: "unit price must be positive"}
			}
		}
	}
	return nil
}

// checkProducts verifies every catalog line item references an existing
// product, in a single batch fetch.
func (s *Service) checkProducts(ctx context.Context, items []LineItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get products")
	}
	found := make(map[string]struct{}, len(fetched))
	for _, p := range fetched {
		found[p.ID] = struct{}{}
	}
	for _, item := range items {
		if _, ok := found[item.ProductID]; !ok {
			return &ProductNotFoundError{ProductID: item.ProductID}
		}
	}
	return nil
}

// oversold reports which reserved products now sit below zero available
// stock. Ledger read failures are logged, not surfaced: the save already
// committed.
func (s *Service) oversold(ctx context.Context, items []LineItem) []string {
	lg := zctx.From(ctx)

	var oversold []string
	for _, item := range items {
		available, err := s.ledger.AvailableStock(ctx, item.ProductID)
		if err != nil {
			lg.Warn("available stock check failed",
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		if available < 0 {
			oversold = append(oversold, item.ProductID)
			lg.Warn("product oversold",
				zap.String("product_id", item.ProductID),
				zap.Int("available", available))
		}
	}
	return oversold
}

// itemsChanged reports whether the proposed item set differs from the
// current one: any add, removal, quantity change, or price change counts.
// Compared as a multiset, since an order may carry several lines of the
// same product.
func itemsChanged(current, proposed []LineItem) bool {
	if len(current) != len(proposed) {
		return true
	}
	type key struct {
		productID string
		qty       int
		price     string
		name      string
	}
	counts := make(map[key]int, len(current))
	for _, item := range current {
		counts[key{item.ProductID, item.Quantity, item.UnitPrice.String(), item.Name}]++
	}
	for _, item := range proposed {
		k := key{item.ProductID, item.Quantity, item.UnitPrice.String(), item.Name}
		counts[k]--
		if counts[k] < 0 {
			return true
		}
	}
	return false
}

// Transition moves an order to the target status. A transition to shipped
// may carry a tracking code; without one the code stays unset. No other side
// effects: inventory was reserved at save time.
func (s *Service) Transition(ctx context.Context, id string, target Status, trackingCode string) error {
	if !target.Known() {
		return &InvalidStatusError{Status: target}
	}

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}

	code := o.TrackingCode
	if target == StatusShipped && trackingCode != "" {
		code = trackingCode
	}

	if err := s.orders.UpdateStatus(ctx, id, target, code); err != nil {
		return errors.Wrap(err, "update status")
	}

	zctx.From(ctx).Info("order transitioned",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(target)))

	return nil
}

// Cancel moves an order into the absorbing cancelled state.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.Transition(ctx, id, StatusCancelled, "")
}

// Delete removes an order and reverses its ledger entries.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}
