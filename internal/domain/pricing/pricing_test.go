package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFees() FeeTable {
	return FeeTable{
		ShippingStandard: decimal.RequireFromString("25.00"),
		ShippingExpress:  decimal.RequireFromString("45.00"),
		ShippingCarrier:  decimal.RequireFromString("80.00"),
	}
}

func TestCalculate_SubtotalOrderIndependent(t *testing.T) {
	items := []Item{
		{UnitPrice: decimal.RequireFromString("10.50"), Quantity: 3},
		{UnitPrice: decimal.RequireFromString("2.25"), Quantity: 1},
		{UnitPrice: decimal.RequireFromString("99.99"), Quantity: 2},
	}
	reversed := []Item{items[2], items[1], items[0]}

	a, err := Calculate(Input{Items: items, Fees: testFees()})
	require.NoError(t, err)
	b, err := Calculate(Input{Items: reversed, Fees: testFees()})
	require.NoError(t, err)

	assert.True(t, a.Subtotal.Equal(b.Subtotal))
	assert.True(t, decimal.RequireFromString("233.73").Equal(a.Subtotal))
}

func TestCalculate_InsuranceOnlyForInsurableMethods(t *testing.T) {
	items := []Item{{UnitPrice: decimal.RequireFromString("100.00"), Quantity: 1}}

	for _, method := range []ShippingMethod{ShippingNone, ShippingStandard, ShippingPickup} {
		totals, err := Calculate(Input{Items: items, Method: method, Fees: testFees()})
		require.NoError(t, err)
		assert.True(t, totals.InsuranceFee.IsZero(), "method %s should carry no insurance", method)
	}

	for _, method := range []ShippingMethod{ShippingExpress, ShippingCarrier} {
		totals, err := Calculate(Input{Items: items, Method: method, Fees: testFees()})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1.00").Equal(totals.InsuranceFee),
			"method %s should carry 1%% insurance", method)
	}
}

func TestCalculate_ExpressExample(t *testing.T) {
	// Two catalog items: qty 2 @ 100.00, qty 1 @ 50.00, express shipping.
	totals, err := Calculate(Input{
		Items: []Item{
			{UnitPrice: decimal.RequireFromString("100.00"), Quantity: 2},
			{UnitPrice: decimal.RequireFromString("50.00"), Quantity: 1},
		},
		Method: ShippingExpress,
		Fees:   testFees(),
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("250.00").Equal(totals.Subtotal))
	assert.True(t, decimal.RequireFromString("2.50").Equal(totals.InsuranceFee))
	assert.True(t, decimal.RequireFromString("45.00").Equal(totals.ShippingFee))
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, decimal.RequireFromString("297.50").Equal(totals.GrandTotal))
}

func TestCalculate_PromoCode(t *testing.T) {
	totals, err := Calculate(Input{
		Items:        []Item{{UnitPrice: decimal.RequireFromString("80.00"), Quantity: 5}},
		Method:       ShippingStandard,
		Fees:         testFees(),
		DiscountCode: PromoCode,
	})
	require.NoError(t, err)

	// 10% of the subtotal computed before discount.
	assert.True(t, decimal.RequireFromString("40.00").Equal(totals.DiscountAmount))
	assert.True(t, decimal.RequireFromString("385.00").Equal(totals.GrandTotal))
}

func TestCalculate_PromoCodeOverridesManualDiscount(t *testing.T) {
	totals, err := Calculate(Input{
		Items:          []Item{{UnitPrice: decimal.RequireFromString("100.00"), Quantity: 1}},
		Fees:           testFees(),
		DiscountCode:   PromoCode,
		ManualDiscount: decimal.RequireFromString("3.00"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.00").Equal(totals.DiscountAmount))
}

func TestCalculate_UnknownCodeRejected(t *testing.T) {
	_, err := Calculate(Input{
		Items:        []Item{{UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
		Fees:         testFees(),
		DiscountCode: "NOTACODE",
	})
	require.ErrorIs(t, err, ErrInvalidDiscountCode)
}

func TestCalculate_ManualDiscount(t *testing.T) {
	totals, err := Calculate(Input{
		Items:          []Item{{UnitPrice: decimal.RequireFromString("30.00"), Quantity: 2}},
		Method:         ShippingPickup,
		Fees:           testFees(),
		ManualDiscount: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("47.50").Equal(totals.GrandTotal))
}

func TestCalculate_OversizedDiscountFlooredAtZero(t *testing.T) {
	totals, err := Calculate(Input{
		Items:          []Item{{UnitPrice: decimal.RequireFromString("10.00"), Quantity: 1}},
		Fees:           testFees(),
		ManualDiscount: decimal.RequireFromString("999.00"),
	})
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.IsZero())
	assert.True(t, decimal.RequireFromString("999.00").Equal(totals.DiscountAmount))
}

func TestTotals_Round(t *testing.T) {
	totals, err := Calculate(Input{
		Items:  []Item{{UnitPrice: decimal.RequireFromString("33.333"), Quantity: 1}},
		Method: ShippingExpress,
		Fees:   testFees(),
	})
	require.NoError(t, err)

	// Unrounded until the persistence boundary.
	assert.True(t, decimal.RequireFromString("0.33333").Equal(totals.InsuranceFee))

	rounded := totals.Round()
	assert.True(t, decimal.RequireFromString("0.33").Equal(rounded.InsuranceFee))
	assert.True(t, decimal.RequireFromString("78.67").Equal(rounded.GrandTotal))
}
