// internal/services/checkout_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnpublished = errors.New("product is not published")
	ErrProductNotDigital  = errors.New("only digital products can be checked out")
)

type CheckoutService struct {
	db      *gorm.DB
	config  *config.Config
	coupons *CouponService
}

func NewCheckoutService(db *gorm.DB, cfg *config.Config, coupons *CouponService) *CheckoutService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &CheckoutService{
		db:      db,
		config:  cfg,
		coupons: coupons,
	}
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// BuildSessionMetadata assembles the opaque metadata the settlement step
// replays from. It must be self-sufficient: by the time the payment completes
// the coupon may have been edited or deactivated, so the agreed terms travel
// inside the session instead of being looked up again.
func BuildSessionMetadata(product *models.Product, applied *ValidCoupon) map[string]string {
	metadata := map[string]string{
		"product_id":   product.ID.String(),
		"product_slug": product.Slug,
	}
	if applied != nil {
		metadata["coupon_id"] = applied.Coupon.ID.String()
		metadata["coupon_code"] = strings.ToUpper(applied.Coupon.Code)
		metadata["original_price"] = applied.Breakdown.Original.StringFixed(2)
		metadata["discount_amount"] = applied.Breakdown.Discount.StringFixed(2)
	}
	return metadata
}

// CreateSession builds a payment session for a product. The price is derived
// entirely server-side; a client-supplied amount is never trusted, and a
// coupon only discounts the session after the full eligibility validation has
// re-run here regardless of any earlier preview.
func (s *CheckoutService) CreateSession(productID uuid.UUID, buyerEmail, couponCode string) (*CheckoutResponse, *CouponError, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	if !product.Published {
		return nil, nil, ErrProductUnpublished
	}
	if product.FileType != models.FileTypeDigital {
		return nil, nil, ErrProductNotDigital
	}

	finalPrice := product.EffectivePrice()
	if !finalPrice.IsPositive() {
		return nil, nil, errors.New("product has no resolvable price")
	}

	var applied *ValidCoupon
	if couponCode != "" {
		valid, cerr, err := s.coupons.Validate(couponCode, product.ID, buyerEmail)
		if err != nil {
			return nil, nil, err
		}
		if cerr != nil {
			return nil, cerr, nil
		}
		applied = valid
		finalPrice = valid.Breakdown.Final
	}

	unitAmount := ToMinorUnits(finalPrice, product.Currency)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(product.Currency)),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(product.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.config.Frontend.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.config.Frontend.BaseURL + "/products/" + product.Slug),
	}

	if buyerEmail != "" {
		params.CustomerEmail = stripe.String(buyerEmail)
	}

	for k, v := range BuildSessionMetadata(&product, applied) {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil, nil
}
