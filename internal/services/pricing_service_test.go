// internal/services/pricing_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpress/shop-backend/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeDiscountPercentage(t *testing.T) {
	breakdown, cerr := ComputeDiscount(d("20.00"), models.CouponTypePercentage, d("50"), "", "EUR")
	require.Nil(t, cerr)

	assert.True(t, breakdown.Original.Equal(d("20.00")))
	assert.True(t, breakdown.Discount.Equal(d("10.00")))
	assert.True(t, breakdown.Final.Equal(d("10.00")))
	assert.Equal(t, "EUR", breakdown.Currency)
}

func TestComputeDiscountPercentageRounding(t *testing.T) {
	// 33% of 9.99 is 3.2967; amounts carry exactly two decimal places
	breakdown, cerr := ComputeDiscount(d("9.99"), models.CouponTypePercentage, d("33"), "", "EUR")
	require.Nil(t, cerr)

	assert.Equal(t, "3.30", breakdown.Discount.StringFixed(2))
	assert.Equal(t, "6.69", breakdown.Final.StringFixed(2))
}

func TestComputeDiscountFinalDerivedFromRoundedDiscount(t *testing.T) {
	// 33.05% of 10.00 is 3.3050; the discount rounds to 3.31 and the final
	// price must be derived from it, not rounded on its own.
	breakdown, cerr := ComputeDiscount(d("10.00"), models.CouponTypePercentage, d("33.05"), "", "EUR")
	require.Nil(t, cerr)

	assert.Equal(t, "3.31", breakdown.Discount.StringFixed(2))
	assert.Equal(t, "6.69", breakdown.Final.StringFixed(2))
	assert.True(t, breakdown.Final.Equal(breakdown.Original.Sub(breakdown.Discount)))
}

func TestComputeDiscountAmountsAlwaysReconcile(t *testing.T) {
	rates := []string{"1", "7.5", "12.34", "33.05", "49.995", "66.67", "99"}
	for _, rate := range rates {
		breakdown, cerr := ComputeDiscount(d("10.00"), models.CouponTypePercentage, d(rate), "", "EUR")
		require.Nil(t, cerr, "rate %s", rate)
		assert.True(t, breakdown.Final.Equal(breakdown.Original.Sub(breakdown.Discount)), "rate %s", rate)
	}
}

func TestComputeDiscountFixed(t *testing.T) {
	breakdown, cerr := ComputeDiscount(d("20.00"), models.CouponTypeFixed, d("5.00"), "EUR", "EUR")
	require.Nil(t, cerr)

	assert.True(t, breakdown.Discount.Equal(d("5.00")))
	assert.True(t, breakdown.Final.Equal(d("15.00")))
}

func TestComputeDiscountFixedCurrencyMismatch(t *testing.T) {
	breakdown, cerr := ComputeDiscount(d("20.00"), models.CouponTypeFixed, d("5.00"), "USD", "EUR")
	require.NotNil(t, cerr)
	assert.Nil(t, breakdown)
	assert.Equal(t, CouponCodeCurrencyMismatch, cerr.Code)
}

func TestComputeDiscountFixedCurrencyCaseInsensitive(t *testing.T) {
	_, cerr := ComputeDiscount(d("20.00"), models.CouponTypeFixed, d("5.00"), "eur", "EUR")
	assert.Nil(t, cerr)
}

func TestComputeDiscountPercentageIgnoresCouponCurrency(t *testing.T) {
	// A percentage coupon has no denomination of its own
	_, cerr := ComputeDiscount(d("20.00"), models.CouponTypePercentage, d("10"), "USD", "EUR")
	assert.Nil(t, cerr)
}

func TestComputeDiscountClampsToMinimumCharge(t *testing.T) {
	// 5.00 off a 1.00 product: the discount shrinks so the final price stays
	// chargeable
	breakdown, cerr := ComputeDiscount(d("1.00"), models.CouponTypeFixed, d("5.00"), "EUR", "EUR")
	require.Nil(t, cerr)

	assert.Equal(t, "0.50", breakdown.Discount.StringFixed(2))
	assert.Equal(t, "0.50", breakdown.Final.StringFixed(2))
}

func TestComputeDiscountFullPercentageClamps(t *testing.T) {
	// 100% off never reaches zero
	breakdown, cerr := ComputeDiscount(d("20.00"), models.CouponTypePercentage, d("100"), "", "EUR")
	require.Nil(t, cerr)

	assert.Equal(t, "19.50", breakdown.Discount.StringFixed(2))
	assert.Equal(t, "0.50", breakdown.Final.StringFixed(2))
}

func TestComputeDiscountBaseBelowMinimumCharge(t *testing.T) {
	// A base price already below the minimum admits no discount at all
	breakdown, cerr := ComputeDiscount(d("0.30"), models.CouponTypePercentage, d("50"), "", "EUR")
	require.Nil(t, cerr)

	assert.Equal(t, "0.00", breakdown.Discount.StringFixed(2))
	assert.Equal(t, "0.50", breakdown.Final.StringFixed(2))
}

func TestComputeDiscountDeterministic(t *testing.T) {
	first, cerr := ComputeDiscount(d("19.99"), models.CouponTypePercentage, d("15"), "", "EUR")
	require.Nil(t, cerr)
	second, cerr := ComputeDiscount(d("19.99"), models.CouponTypePercentage, d("15"), "", "EUR")
	require.Nil(t, cerr)

	assert.True(t, first.Discount.Equal(second.Discount))
	assert.True(t, first.Final.Equal(second.Final))
}

func TestMinorUnitExponent(t *testing.T) {
	assert.Equal(t, int32(2), MinorUnitExponent("EUR"))
	assert.Equal(t, int32(2), MinorUnitExponent("usd"))
	assert.Equal(t, int32(0), MinorUnitExponent("JPY"))
	assert.Equal(t, int32(0), MinorUnitExponent("krw"))
	assert.Equal(t, int32(3), MinorUnitExponent("KWD"))
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"10.00", "EUR", 1000},
		{"0.50", "EUR", 50},
		{"19.99", "USD", 1999},
		{"500", "JPY", 500},
		{"1.234", "KWD", 1234},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(d(tt.amount), tt.currency), "%s %s", tt.amount, tt.currency)
	}
}
