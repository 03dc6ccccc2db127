package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// Sentinel errors for order validation and lookup.
var (
	ErrClientRequired = errors.New("client required")
	ErrEmptyItems     = errors.New("items required")
	ErrNotFound       = errors.New("order not found")
)

// ProductNotFoundError indicates a catalog line item references a product
// that does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.ProductID)
}

// ManualItemError indicates malformed manual-item input: a blank name or a
// non-positive unit price.
type ManualItemError struct {
	ProductID string
	Reason    string
}

func (e *ManualItemError) Error() string {
	return fmt.Sprintf("manual item %s: %s", e.ProductID, e.Reason)
}

// LockViolationError indicates an item edit attempted on a locked order by a
// principal without elevated privilege. It is enforced before any write.
type LockViolationError struct {
	OrderID string
	Status  Status
}

func (e *LockViolationError) Error() string {
	return fmt.Sprintf("order %s is locked in status %s", e.OrderID, e.Status)
}

// ConflictError indicates a stale save: the order was modified by another
// session since this one loaded it.
type ConflictError struct {
	OrderID string
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order %s was modified concurrently (stale version %d)", e.OrderID, e.Version)
}

// InvalidStatusError indicates a transition targeting an unknown status.
type InvalidStatusError struct {
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("unknown status %q", e.Status)
}

// IsValidation reports whether err belongs to the validation class: the
// caller's input is at fault and no write has occurred.
func IsValidation(err error) bool {
	if errors.Is(err, ErrClientRequired) ||
		errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, pricing.ErrInvalidDiscountCode) {
		return true
	}
	var (
		pnf *ProductNotFoundError
		iq  *InvalidQuantityError
		mi  *ManualItemError
		is  *InvalidStatusError
	)
	return errors.As(err, &pnf) || errors.As(err, &iq) || errors.As(err, &mi) || errors.As(err, &is)
}
