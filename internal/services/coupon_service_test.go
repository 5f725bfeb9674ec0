// internal/services/coupon_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpress/shop-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func testProduct(price string) *models.Product {
	p := &models.Product{
		Title:     "Letterpress Starter Kit",
		Slug:      "letterpress-starter-kit",
		Price:     decimal.RequireFromString(price),
		Currency:  "EUR",
		Published: true,
		FileType:  models.FileTypeDigital,
	}
	p.ID = uuid.New()
	return p
}

func testCoupon() *models.Coupon {
	c := &models.Coupon{
		Code:        "SPRING10",
		Type:        models.CouponTypePercentage,
		Value:       decimal.RequireFromString("10"),
		Active:      true,
		AllowOnSale: true,
	}
	c.ID = uuid.New()
	return c
}

func TestEvaluateCouponHappyPath(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()

	valid, cerr := EvaluateCoupon(coupon, product.ID, product, "buyer@example.com", 0, time.Now())
	require.Nil(t, cerr)
	require.NotNil(t, valid)

	assert.Equal(t, coupon, valid.Coupon)
	assert.Equal(t, "2.00", valid.Breakdown.Discount.StringFixed(2))
	assert.Equal(t, "18.00", valid.Breakdown.Final.StringFixed(2))
}

func TestEvaluateCouponInactive(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.Active = false

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeInactive, cerr.Code)
}

func TestEvaluateCouponNotStarted(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	starts := time.Now().Add(24 * time.Hour)
	coupon.StartsAt = &starts

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeNotStarted, cerr.Code)
}

func TestEvaluateCouponExpired(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	expires := time.Now().Add(-time.Hour)
	coupon.ExpiresAt = &expires

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeExpired, cerr.Code)
}

func TestEvaluateCouponMaxUses(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.MaxUses = intPtr(100)
	coupon.UsedCount = 100

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeMaxUses, cerr.Code)
}

func TestEvaluateCouponMaxUsesLastUseAllowed(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.MaxUses = intPtr(100)
	coupon.UsedCount = 99

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	assert.Nil(t, cerr)
}

func TestEvaluateCouponPerUserLimit(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.PerUserLimit = 1

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "buyer@example.com", 1, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeUserLimit, cerr.Code)
}

func TestEvaluateCouponPerUserLimitSkippedForAnonymous(t *testing.T) {
	// Without a buyer identity the per-user check cannot run; it re-runs at
	// checkout when the email is known
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.PerUserLimit = 1

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 5, time.Now())
	assert.Nil(t, cerr)
}

func TestEvaluateCouponWrongProduct(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.ProductIDs = pq.StringArray{uuid.NewString()}

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeWrongProduct, cerr.Code)
}

func TestEvaluateCouponAllowListAdmits(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.ProductIDs = pq.StringArray{uuid.NewString(), product.ID.String()}

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	assert.Nil(t, cerr)
}

func TestEvaluateCouponProductMissing(t *testing.T) {
	coupon := testCoupon()

	_, cerr := EvaluateCoupon(coupon, uuid.New(), nil, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeProductNotFound, cerr.Code)
}

func TestEvaluateCouponProductWithoutPrice(t *testing.T) {
	// A missing price is a validation failure, never a free product
	product := testProduct("0")
	coupon := testCoupon()

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeProductNotFound, cerr.Code)
}

func TestEvaluateCouponNotOnSale(t *testing.T) {
	product := testProduct("20.00")
	product.OnSale = true
	product.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("15.00"))
	coupon := testCoupon()
	coupon.AllowOnSale = false

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeNotOnSale, cerr.Code)
}

func TestEvaluateCouponSaleStacksWhenAllowed(t *testing.T) {
	// The discount applies over the sale price, not the list price
	product := testProduct("20.00")
	product.OnSale = true
	product.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("15.00"))
	coupon := testCoupon()

	valid, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.Nil(t, cerr)
	assert.Equal(t, "15.00", valid.Breakdown.Original.StringFixed(2))
	assert.Equal(t, "13.50", valid.Breakdown.Final.StringFixed(2))
}

func TestEvaluateCouponMinPurchase(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.MinPurchase = decimal.NewNullDecimal(decimal.RequireFromString("25.00"))

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeMinPurchase, cerr.Code)
}

func TestEvaluateCouponMinPurchaseExactlyMet(t *testing.T) {
	product := testProduct("25.00")
	coupon := testCoupon()
	coupon.MinPurchase = decimal.NewNullDecimal(decimal.RequireFromString("25.00"))

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	assert.Nil(t, cerr)
}

func TestEvaluateCouponFixedCurrencyMismatch(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.Type = models.CouponTypeFixed
	coupon.Value = decimal.RequireFromString("5.00")
	coupon.Currency = "USD"

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeCurrencyMismatch, cerr.Code)
}

func TestEvaluateCouponCheckOrderInactiveWinsOverExpired(t *testing.T) {
	// The checks run in a fixed order; the first failure is reported even when
	// several would fail
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.Active = false
	expires := time.Now().Add(-time.Hour)
	coupon.ExpiresAt = &expires
	coupon.MaxUses = intPtr(1)
	coupon.UsedCount = 1

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeInactive, cerr.Code)
}

func TestEvaluateCouponCheckOrderExpiredWinsOverMaxUses(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	expires := time.Now().Add(-time.Hour)
	coupon.ExpiresAt = &expires
	coupon.MaxUses = intPtr(1)
	coupon.UsedCount = 1

	_, cerr := EvaluateCoupon(coupon, product.ID, product, "", 0, time.Now())
	require.NotNil(t, cerr)
	assert.Equal(t, CouponCodeExpired, cerr.Code)
}

func TestEvaluateCouponDeterministic(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	now := time.Now()

	first, cerr := EvaluateCoupon(coupon, product.ID, product, "buyer@example.com", 0, now)
	require.Nil(t, cerr)
	second, cerr := EvaluateCoupon(coupon, product.ID, product, "buyer@example.com", 0, now)
	require.Nil(t, cerr)

	assert.True(t, first.Breakdown.Final.Equal(second.Breakdown.Final))
	assert.True(t, first.Breakdown.Discount.Equal(second.Breakdown.Discount))
}

func TestCouponErrorLocalizedMessage(t *testing.T) {
	cerr := NewCouponError(CouponCodeExpired)
	assert.NotEmpty(t, cerr.Error())
	assert.Contains(t, cerr.Error(), "Expired")
}
