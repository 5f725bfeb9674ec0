// internal/services/settlement_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
)

func TestBuildSessionMetadataWithoutCoupon(t *testing.T) {
	product := testProduct("20.00")

	metadata := BuildSessionMetadata(product, nil)

	assert.Equal(t, product.ID.String(), metadata["product_id"])
	assert.Equal(t, product.Slug, metadata["product_slug"])
	assert.NotContains(t, metadata, "coupon_id")
	assert.NotContains(t, metadata, "discount_amount")
}

func TestBuildSessionMetadataWithCoupon(t *testing.T) {
	product := testProduct("20.00")
	coupon := testCoupon()
	coupon.Code = "spring10"

	breakdown, cerr := ComputeDiscount(product.Price, coupon.Type, coupon.Value, coupon.Currency, product.Currency)
	require.Nil(t, cerr)

	metadata := BuildSessionMetadata(product, &ValidCoupon{Coupon: coupon, Breakdown: breakdown})

	assert.Equal(t, coupon.ID.String(), metadata["coupon_id"])
	assert.Equal(t, "SPRING10", metadata["coupon_code"])
	assert.Equal(t, "20.00", metadata["original_price"])
	assert.Equal(t, "2.00", metadata["discount_amount"])
}

func TestParseSessionMetadataRoundTrip(t *testing.T) {
	// What checkout embeds, settlement must read back unchanged
	product := testProduct("20.00")
	coupon := testCoupon()

	breakdown, cerr := ComputeDiscount(product.Price, coupon.Type, coupon.Value, coupon.Currency, product.Currency)
	require.Nil(t, cerr)

	metadata := BuildSessionMetadata(product, &ValidCoupon{Coupon: coupon, Breakdown: breakdown})

	parsed, err := ParseSessionMetadata(metadata)
	require.NoError(t, err)

	assert.Equal(t, product.ID, parsed.ProductID)
	assert.Equal(t, product.Slug, parsed.ProductSlug)
	require.NotNil(t, parsed.CouponID)
	assert.Equal(t, coupon.ID, *parsed.CouponID)
	assert.Equal(t, coupon.Code, parsed.CouponCode)
	assert.True(t, parsed.OriginalPrice.Equal(breakdown.Original))
	assert.True(t, parsed.DiscountAmount.Equal(breakdown.Discount))
}

func TestParseSessionMetadataWithoutCoupon(t *testing.T) {
	product := testProduct("20.00")

	parsed, err := ParseSessionMetadata(BuildSessionMetadata(product, nil))
	require.NoError(t, err)

	assert.Nil(t, parsed.CouponID)
	assert.True(t, parsed.OriginalPrice.IsZero())
}

func TestParseSessionMetadataMissingProductID(t *testing.T) {
	_, err := ParseSessionMetadata(map[string]string{})
	assert.ErrorIs(t, err, ErrMissingMetadata)

	_, err = ParseSessionMetadata(map[string]string{"product_id": ""})
	assert.ErrorIs(t, err, ErrMissingMetadata)

	_, err = ParseSessionMetadata(map[string]string{"product_id": "not-a-uuid"})
	assert.ErrorIs(t, err, ErrMissingMetadata)
}

func TestParseSessionMetadataMalformedCouponFields(t *testing.T) {
	productID := uuid.NewString()

	_, err := ParseSessionMetadata(map[string]string{
		"product_id": productID,
		"coupon_id":  "not-a-uuid",
	})
	assert.Error(t, err)

	_, err = ParseSessionMetadata(map[string]string{
		"product_id":      productID,
		"coupon_id":       uuid.NewString(),
		"original_price":  "twenty",
		"discount_amount": "2.00",
	})
	assert.Error(t, err)
}

func TestSettlementMetadataFinalPrice(t *testing.T) {
	// Settlement records the usage from embedded terms, never from live coupon
	// state
	meta := &SettlementMetadata{
		OriginalPrice:  decimal.RequireFromString("20.00"),
		DiscountAmount: decimal.RequireFromString("2.00"),
	}

	final := meta.OriginalPrice.Sub(meta.DiscountAmount)
	assert.Equal(t, "18.00", final.StringFixed(2))
}

func TestCouponUsageModelFields(t *testing.T) {
	usage := models.CouponUsage{
		CouponID:        uuid.New(),
		UserEmail:       "buyer@example.com",
		OriginalPrice:   decimal.RequireFromString("20.00"),
		DiscountAmount:  decimal.RequireFromString("2.00"),
		FinalPrice:      decimal.RequireFromString("18.00"),
		StripeSessionID: "cs_test_123",
	}

	assert.True(t, usage.OriginalPrice.Sub(usage.DiscountAmount).Equal(usage.FinalPrice))
}

// settlementStoreStub keeps everything in maps so the redelivery guards can be
// exercised without a database.
type settlementStoreStub struct {
	purchases map[string]*models.DigitalPurchase
	usages    map[string]*models.CouponUsage

	createPurchaseErr error
	purchaseCreates   int
	couponIncrements  int
	salesIncrements   int
}

func newSettlementStoreStub() *settlementStoreStub {
	return &settlementStoreStub{
		purchases: make(map[string]*models.DigitalPurchase),
		usages:    make(map[string]*models.CouponUsage),
	}
}

func (s *settlementStoreStub) PurchaseBySession(sessionID string) (*models.DigitalPurchase, error) {
	if purchase, ok := s.purchases[sessionID]; ok {
		return purchase, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *settlementStoreStub) CreatePurchase(purchase *models.DigitalPurchase) error {
	s.purchaseCreates++
	if s.createPurchaseErr != nil {
		return s.createPurchaseErr
	}
	if _, ok := s.purchases[purchase.StripeSessionID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	s.purchases[purchase.StripeSessionID] = purchase
	return nil
}

func (s *settlementStoreStub) CouponUsageExists(couponID uuid.UUID, sessionID string) (bool, error) {
	_, ok := s.usages[sessionID]
	return ok, nil
}

func (s *settlementStoreStub) CreateCouponUsage(usage *models.CouponUsage) error {
	s.usages[usage.StripeSessionID] = usage
	return nil
}

func (s *settlementStoreStub) IncrementCouponUsedCount(couponID uuid.UUID) error {
	s.couponIncrements++
	return nil
}

func (s *settlementStoreStub) IncrementProductSalesCount(productID uuid.UUID) error {
	s.salesIncrements++
	return nil
}

func newStubbedSettlementService(store settlementStore) *SettlementService {
	cfg := &config.Config{}
	cfg.Download.MaxDownloads = 3
	cfg.Download.ExpiryDays = 7
	return &SettlementService{store: store, config: cfg}
}

func TestReconcileRedeliveryYieldsOnePurchase(t *testing.T) {
	store := newSettlementStoreStub()
	service := newStubbedSettlementService(store)
	metadata := BuildSessionMetadata(testProduct("20.00"), nil)

	first, err := service.Reconcile("cs_test_once", "buyer@example.com", metadata)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := service.Reconcile("cs_test_once", "buyer@example.com", metadata)
	require.NoError(t, err)
	require.NotNil(t, second)

	// The redelivery returns the original entitlement rather than minting a
	// second one.
	assert.Equal(t, 1, store.purchaseCreates)
	assert.Len(t, store.purchases, 1)
	assert.Equal(t, first.DownloadToken, second.DownloadToken)
	assert.Equal(t, 1, store.salesIncrements)
}

func TestReconcileConcurrentDeliveryRace(t *testing.T) {
	store := newSettlementStoreStub()
	service := newStubbedSettlementService(store)
	metadata := BuildSessionMetadata(testProduct("20.00"), nil)

	// Another delivery lands between this one's existence check and its
	// insert; the unique index rejects the write and the settled row is
	// re-read instead of failing the webhook.
	settled := &models.DigitalPurchase{StripeSessionID: "cs_test_race", DownloadToken: "tok_winner"}
	store.createPurchaseErr = errors.New("duplicate key value violates unique constraint")

	firstCall := true
	service.store = &raceStore{stub: store, onMiss: func() {
		if firstCall {
			firstCall = false
			store.purchases["cs_test_race"] = settled
		}
	}}

	purchase, err := service.Reconcile("cs_test_race", "buyer@example.com", metadata)
	require.NoError(t, err)
	assert.Equal(t, "tok_winner", purchase.DownloadToken)
}

// raceStore injects a competing write after the first not-found lookup.
type raceStore struct {
	stub   *settlementStoreStub
	onMiss func()
}

func (r *raceStore) PurchaseBySession(sessionID string) (*models.DigitalPurchase, error) {
	purchase, err := r.stub.PurchaseBySession(sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.onMiss()
	}
	return purchase, err
}

func (r *raceStore) CreatePurchase(p *models.DigitalPurchase) error { return r.stub.CreatePurchase(p) }
func (r *raceStore) CouponUsageExists(couponID uuid.UUID, sessionID string) (bool, error) {
	return r.stub.CouponUsageExists(couponID, sessionID)
}
func (r *raceStore) CreateCouponUsage(u *models.CouponUsage) error { return r.stub.CreateCouponUsage(u) }
func (r *raceStore) IncrementCouponUsedCount(id uuid.UUID) error {
	return r.stub.IncrementCouponUsedCount(id)
}
func (r *raceStore) IncrementProductSalesCount(id uuid.UUID) error {
	return r.stub.IncrementProductSalesCount(id)
}

func TestReconcileRecordsCouponUsageOnce(t *testing.T) {
	store := newSettlementStoreStub()
	service := newStubbedSettlementService(store)

	product := testProduct("20.00")
	coupon := testCoupon()
	breakdown, cerr := ComputeDiscount(product.Price, coupon.Type, coupon.Value, coupon.Currency, product.Currency)
	require.Nil(t, cerr)
	metadata := BuildSessionMetadata(product, &ValidCoupon{Coupon: coupon, Breakdown: breakdown})

	_, err := service.Reconcile("cs_test_coupon", "buyer@example.com", metadata)
	require.NoError(t, err)
	_, err = service.Reconcile("cs_test_coupon", "buyer@example.com", metadata)
	require.NoError(t, err)

	require.Len(t, store.usages, 1)
	assert.Equal(t, 1, store.couponIncrements)

	usage := store.usages["cs_test_coupon"]
	assert.True(t, usage.FinalPrice.Equal(usage.OriginalPrice.Sub(usage.DiscountAmount)))
}

func TestReconcileRejectsMissingBuyerEmail(t *testing.T) {
	store := newSettlementStoreStub()
	service := newStubbedSettlementService(store)
	metadata := BuildSessionMetadata(testProduct("20.00"), nil)

	_, err := service.Reconcile("cs_test_anon", "", metadata)
	assert.ErrorIs(t, err, ErrMissingMetadata)
	assert.Empty(t, store.purchases)
}
