// internal/services/settlement_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/utils"
)

// ErrMissingMetadata marks a completion event that cannot be reconciled at
// all: the webhook acks it so the provider stops redelivering, but nothing is
// written.
var ErrMissingMetadata = errors.New("payment event is missing required metadata")

// settlementStore is the persistence surface Reconcile runs against. Absent
// rows are reported with gorm.ErrRecordNotFound so the redelivery checks read
// the same either way.
type settlementStore interface {
	PurchaseBySession(sessionID string) (*models.DigitalPurchase, error)
	CreatePurchase(purchase *models.DigitalPurchase) error
	CouponUsageExists(couponID uuid.UUID, sessionID string) (bool, error)
	CreateCouponUsage(usage *models.CouponUsage) error
	IncrementCouponUsedCount(couponID uuid.UUID) error
	IncrementProductSalesCount(productID uuid.UUID) error
}

type gormSettlementStore struct {
	db *gorm.DB
}

func (s *gormSettlementStore) PurchaseBySession(sessionID string) (*models.DigitalPurchase, error) {
	var purchase models.DigitalPurchase
	if err := s.db.Where("stripe_session_id = ?", sessionID).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *gormSettlementStore) CreatePurchase(purchase *models.DigitalPurchase) error {
	return s.db.Create(purchase).Error
}

func (s *gormSettlementStore) CouponUsageExists(couponID uuid.UUID, sessionID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND stripe_session_id = ?", couponID, sessionID).
		Count(&count).Error
	return count > 0, err
}

func (s *gormSettlementStore) CreateCouponUsage(usage *models.CouponUsage) error {
	return s.db.Create(usage).Error
}

func (s *gormSettlementStore) IncrementCouponUsedCount(couponID uuid.UUID) error {
	return s.db.Model(&models.Coupon{}).
		Where("id = ?", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

func (s *gormSettlementStore) IncrementProductSalesCount(productID uuid.UUID) error {
	return s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error
}

type SettlementService struct {
	store         settlementStore
	config        *config.Config
	notifications *NotificationService
}

func NewSettlementService(db *gorm.DB, cfg *config.Config, notifications *NotificationService) *SettlementService {
	return &SettlementService{
		store:         &gormSettlementStore{db: db},
		config:        cfg,
		notifications: notifications,
	}
}

// SettlementMetadata is what checkout embedded into the session: everything
// settlement needs without consulting mutable coupon state.
type SettlementMetadata struct {
	ProductID      uuid.UUID
	ProductSlug    string
	CouponID       *uuid.UUID
	CouponCode     string
	OriginalPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
}

// ParseSessionMetadata extracts the reconciliation payload from the session's
// metadata map. A missing or malformed product id is fatal for the event.
// Coupon fields are optional as a group; a session without them settles as a
// full-price purchase.
func ParseSessionMetadata(metadata map[string]string) (*SettlementMetadata, error) {
	rawProductID, ok := metadata["product_id"]
	if !ok || rawProductID == "" {
		return nil, ErrMissingMetadata
	}
	productID, err := uuid.Parse(rawProductID)
	if err != nil {
		return nil, ErrMissingMetadata
	}

	parsed := &SettlementMetadata{
		ProductID:   productID,
		ProductSlug: metadata["product_slug"],
	}

	if rawCouponID, ok := metadata["coupon_id"]; ok && rawCouponID != "" {
		couponID, err := uuid.Parse(rawCouponID)
		if err != nil {
			return nil, fmt.Errorf("invalid coupon_id in session metadata: %w", err)
		}
		parsed.CouponID = &couponID
		parsed.CouponCode = metadata["coupon_code"]

		original, err := decimal.NewFromString(metadata["original_price"])
		if err != nil {
			return nil, fmt.Errorf("invalid original_price in session metadata: %w", err)
		}
		discount, err := decimal.NewFromString(metadata["discount_amount"])
		if err != nil {
			return nil, fmt.Errorf("invalid discount_amount in session metadata: %w", err)
		}
		parsed.OriginalPrice = original
		parsed.DiscountAmount = discount
	}

	return parsed, nil
}

// Reconcile materializes a completed payment session into durable state: the
// purchase entitlement and, when a coupon was applied, its usage bookkeeping.
// The provider delivers completion events at least once, so every step checks
// whether it already ran. There is no wrapping transaction across the coupon
// writes; the entitlement is the critical path and coupon bookkeeping
// failures are logged and swallowed.
func (s *SettlementService) Reconcile(sessionID, buyerEmail string, metadata map[string]string) (*models.DigitalPurchase, error) {
	meta, err := ParseSessionMetadata(metadata)
	if err != nil {
		return nil, err
	}
	if buyerEmail == "" {
		return nil, ErrMissingMetadata
	}

	log := logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"product_id": meta.ProductID,
	})

	// Redelivery guard: one entitlement per session, ever.
	existing, err := s.store.PurchaseBySession(sessionID)
	if err == nil {
		log.Info("Session already settled, skipping")
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing purchase: %w", err)
	}

	token, err := utils.GenerateDownloadToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate download token: %w", err)
	}

	purchase := &models.DigitalPurchase{
		ProductID:       meta.ProductID,
		UserEmail:       buyerEmail,
		DownloadToken:   token,
		MaxDownloads:    s.config.Download.MaxDownloads,
		ExpiresAt:       time.Now().AddDate(0, 0, s.config.Download.ExpiryDays),
		StripeSessionID: sessionID,
		CouponID:        meta.CouponID,
	}

	if err := s.store.CreatePurchase(purchase); err != nil {
		// A concurrent delivery may have won the race on the session id
		// unique index; re-read rather than fail the webhook.
		if settled, lookupErr := s.store.PurchaseBySession(sessionID); lookupErr == nil {
			log.Info("Concurrent delivery settled the session first")
			return settled, nil
		}
		return nil, fmt.Errorf("failed to create purchase entitlement: %w", err)
	}

	if meta.CouponID != nil {
		s.recordCouponUsage(meta, sessionID, buyerEmail, log)
	}

	if err := s.store.IncrementProductSalesCount(meta.ProductID); err != nil {
		log.WithError(err).Warn("Failed to increment product sales count")
	}

	if s.notifications != nil {
		if err := s.notifications.SendPurchaseReceiptEmail(purchase); err != nil {
			log.WithError(err).Warn("Failed to send purchase receipt")
		}
	}

	log.Info("Payment session settled")
	return purchase, nil
}

// recordCouponUsage writes the usage row from the terms embedded at checkout
// time, then bumps the coupon's counter. The two writes are not atomic (store
// limitation): a usage row without an increment is tolerable, and the
// increment only runs after the row landed so a failure can never
// double-count. Nothing here propagates; the entitlement already exists.
func (s *SettlementService) recordCouponUsage(meta *SettlementMetadata, sessionID, buyerEmail string, log *logrus.Entry) {
	log = log.WithField("coupon_id", meta.CouponID)

	recorded, err := s.store.CouponUsageExists(*meta.CouponID, sessionID)
	if err != nil {
		log.WithError(err).Warn("Failed to check for existing coupon usage")
		return
	}
	if recorded {
		log.Info("Coupon usage already recorded for session, skipping")
		return
	}

	usage := &models.CouponUsage{
		CouponID:        *meta.CouponID,
		UserEmail:       buyerEmail,
		OriginalPrice:   meta.OriginalPrice,
		DiscountAmount:  meta.DiscountAmount,
		FinalPrice:      meta.OriginalPrice.Sub(meta.DiscountAmount),
		StripeSessionID: sessionID,
	}

	if err := s.store.CreateCouponUsage(usage); err != nil {
		log.WithError(err).Warn("Failed to record coupon usage")
		return
	}

	if err := s.store.IncrementCouponUsedCount(*meta.CouponID); err != nil {
		log.WithError(err).Warn("Failed to increment coupon used count")
	}
}
