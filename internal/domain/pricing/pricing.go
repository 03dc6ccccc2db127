// Package pricing implements the pure order total calculation: subtotal,
// shipping fee, insurance fee, discount, and grand total. It performs no I/O
// and rounds nothing; callers round at the persistence boundary.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ShippingMethod enumerates the supported delivery options.
type ShippingMethod string

const (
	ShippingNone     ShippingMethod = "none"
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingCarrier  ShippingMethod = "carrier"
	ShippingPickup   ShippingMethod = "pickup"
)

// Insurable reports whether the method produces a trackable, insurable
// shipment. Only such shipments carry the insurance fee.
func (m ShippingMethod) Insurable() bool {
	return m == ShippingExpress || m == ShippingCarrier
}

// PromoCode is the single recognized promotional discount code. Applying it
// discounts 10% of the subtotal; any other code is rejected.
const PromoCode = "PROMO10"

// ErrInvalidDiscountCode is returned when a discount code other than
// PromoCode is applied.
var ErrInvalidDiscountCode = errors.New("invalid discount code")

var (
	promoRate     = decimal.RequireFromString("0.10")
	insuranceRate = decimal.RequireFromString("0.01")
)

// FeeTable maps shipping methods to their business-configured flat fees.
// Missing methods (none, pickup) resolve to zero.
type FeeTable map[ShippingMethod]decimal.Decimal

// Fee returns the flat fee for the given method, or zero when unconfigured.
func (t FeeTable) Fee(m ShippingMethod) decimal.Decimal {
	if fee, ok := t[m]; ok {
		return fee
	}
	return decimal.Zero
}

// Item is a line item as seen by the calculator. Catalog and manual items are
// priced identically.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Input carries everything the calculator needs for one quote.
type Input struct {
	Items  []Item
	Method ShippingMethod
	Fees   FeeTable

	// DiscountCode, when non-empty, must equal PromoCode and overrides
	// ManualDiscount with 10% of the subtotal.
	DiscountCode string
	// ManualDiscount is a flat discount amount entered by the operator.
	ManualDiscount decimal.Decimal
}

// Totals is the financial breakdown of an order. Values are unrounded; the
// repository rounds to 2 decimal places at save time.
type Totals struct {
	Subtotal       decimal.Decimal
	ShippingFee    decimal.Decimal
	InsuranceFee   decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// Calculate computes the totals for the given input. It returns
// ErrInvalidDiscountCode for an unrecognized discount code and leaves no
// other observable effect.
func Calculate(in Input) (Totals, error) {
	subtotal := decimal.Zero
	for _, item := range in.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
	}

	shippingFee := in.Fees.Fee(in.Method)

	insuranceFee := decimal.Zero
	if in.Method.Insurable() {
		insuranceFee = subtotal.Mul(insuranceRate)
	}

	discount := in.ManualDiscount
	if in.DiscountCode != "" {
		if in.DiscountCode != PromoCode {
			return Totals{}, ErrInvalidDiscountCode
		}
		discount = subtotal.Mul(promoRate)
	}

	total := subtotal.Add(shippingFee).Add(insuranceFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		InsuranceFee:   insuranceFee,
		DiscountAmount: discount,
		GrandTotal:     total,
	}, nil
}

// Round returns a copy of t with every amount rounded to 2 decimal places.
// Applied once, at the persistence boundary, to avoid compounding rounding
// error across repeated recalculation.
func (t Totals) Round() Totals {
	return Totals{
		Subtotal:       t.Subtotal.Round(2),
		ShippingFee:    t.ShippingFee.Round(2),
		InsuranceFee:   t.InsuranceFee.Round(2),
		DiscountAmount: t.DiscountAmount.Round(2),
		GrandTotal:     t.GrandTotal.Round(2),
	}
}
