// internal/services/coupon_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/utils"
)

var ErrCouponCodeExists = errors.New("a coupon with this code already exists")

type CouponService struct {
	db *gorm.DB
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// ValidCoupon is the successful outcome of eligibility validation: the coupon
// identity plus the computed discount breakdown.
type ValidCoupon struct {
	Coupon    *models.Coupon  `json:"coupon"`
	Breakdown *PriceBreakdown `json:"discount"`
}

// EvaluateCoupon runs the eligibility checks in their fixed order over an
// already-loaded snapshot. It is pure: the preview endpoint and checkout both
// call this exact function, so their outcomes cannot diverge. product may be
// nil when the referenced product does not exist.
//
// Check order (first failure wins): active, start window, expiry window,
// global usage cap, per-user limit, product allow-list, product resolvable,
// sale-price exclusion, minimum purchase, then the discount calculator.
func EvaluateCoupon(coupon *models.Coupon, productID uuid.UUID, product *models.Product, buyerEmail string, priorUses int, now time.Time) (*ValidCoupon, *CouponError) {
	if !coupon.Active {
		return nil, NewCouponError(CouponCodeInactive)
	}

	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, NewCouponError(CouponCodeNotStarted)
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return nil, NewCouponError(CouponCodeExpired)
	}

	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, NewCouponError(CouponCodeMaxUses)
	}

	if buyerEmail != "" && coupon.PerUserLimit > 0 && priorUses >= coupon.PerUserLimit {
		return nil, NewCouponError(CouponCodeUserLimit)
	}

	if !coupon.AppliesTo(productID) {
		return nil, NewCouponError(CouponCodeWrongProduct)
	}

	// A missing price is a validation failure, never a zero price.
	if product == nil || !product.EffectivePrice().IsPositive() {
		return nil, NewCouponError(CouponCodeProductNotFound)
	}

	if product.HasSalePrice() && !coupon.AllowOnSale {
		return nil, NewCouponError(CouponCodeNotOnSale)
	}

	basePrice := product.EffectivePrice()
	if coupon.MinPurchase.Valid && basePrice.LessThan(coupon.MinPurchase.Decimal) {
		return nil, NewCouponError(CouponCodeMinPurchase)
	}

	breakdown, cerr := ComputeDiscount(basePrice, coupon.Type, coupon.Value, coupon.Currency, product.Currency)
	if cerr != nil {
		return nil, cerr
	}

	return &ValidCoupon{Coupon: coupon, Breakdown: breakdown}, nil
}

// Validate looks up the snapshot and delegates to EvaluateCoupon. It never
// mutates state; running it twice with identical inputs yields identical
// results.
func (s *CouponService) Validate(code string, productID uuid.UUID, buyerEmail string) (*ValidCoupon, *CouponError, error) {
	coupon, err := s.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewCouponError(CouponCodeNotFound), nil
		}
		return nil, nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	var product *models.Product
	var p models.Product
	if err := s.db.First(&p, "id = ?", productID).Error; err == nil {
		product = &p
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to look up product: %w", err)
	}

	priorUses := 0
	if buyerEmail != "" && coupon.PerUserLimit > 0 {
		var count int64
		if err := s.db.Model(&models.CouponUsage{}).
			Where("coupon_id = ? AND LOWER(user_email) = LOWER(?)", coupon.ID, buyerEmail).
			Count(&count).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		priorUses = int(count)
	}

	valid, cerr := EvaluateCoupon(coupon, productID, product, buyerEmail, priorUses, time.Now())
	return valid, cerr, nil
}

// FindByCode resolves a coupon by case-insensitive exact code match.
func (s *CouponService) FindByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Where("LOWER(code) = LOWER(?)", strings.TrimSpace(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

type CreateCouponRequest struct {
	Code         string     `json:"code" validate:"required,coupon_code"`
	Type         string     `json:"type" validate:"required,oneof=percentage fixed"`
	Value        string     `json:"value" validate:"required"`
	Currency     string     `json:"currency,omitempty" validate:"omitempty,currency_code"`
	Active       *bool      `json:"active,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	MaxUses      *int       `json:"max_uses,omitempty"`
	PerUserLimit int        `json:"per_user_limit,omitempty"`
	MinPurchase  string     `json:"min_purchase,omitempty"`
	AllowOnSale  *bool      `json:"allow_on_sale,omitempty"`
	ProductIDs   []string   `json:"product_ids,omitempty"`
}

func (s *CouponService) CreateCoupon(req *CreateCouponRequest) (*models.Coupon, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		return nil, errors.New("coupon value must be a positive decimal")
	}

	if _, err := s.FindByCode(req.Code); err == nil {
		return nil, ErrCouponCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}

	coupon := &models.Coupon{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Type:         models.CouponType(req.Type),
		Value:        value,
		Currency:     strings.ToUpper(req.Currency),
		Active:       true,
		StartsAt:     req.StartsAt,
		ExpiresAt:    req.ExpiresAt,
		MaxUses:      req.MaxUses,
		PerUserLimit: req.PerUserLimit,
		AllowOnSale:  true,
		ProductIDs:   pq.StringArray(req.ProductIDs),
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if req.AllowOnSale != nil {
		coupon.AllowOnSale = *req.AllowOnSale
	}
	if req.MinPurchase != "" {
		min, err := decimal.NewFromString(req.MinPurchase)
		if err != nil {
			return nil, errors.New("min_purchase must be a decimal")
		}
		coupon.MinPurchase = decimal.NewNullDecimal(min)
	}

	if err := s.db.Create(coupon).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return coupon, nil
}

type UpdateCouponRequest struct {
	Active       *bool      `json:"active,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	MaxUses      *int       `json:"max_uses,omitempty"`
	PerUserLimit *int       `json:"per_user_limit,omitempty"`
	MinPurchase  *string    `json:"min_purchase,omitempty"`
	AllowOnSale  *bool      `json:"allow_on_sale,omitempty"`
	ProductIDs   []string   `json:"product_ids,omitempty"`
}

// UpdateCoupon applies operator edits. The code, type and value are fixed at
// creation; used_count is only ever touched by settlement.
func (s *CouponService) UpdateCoupon(id uuid.UUID, req *UpdateCouponRequest) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if req.StartsAt != nil {
		coupon.StartsAt = req.StartsAt
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = req.ExpiresAt
	}
	if req.MaxUses != nil {
		coupon.MaxUses = req.MaxUses
	}
	if req.PerUserLimit != nil {
		coupon.PerUserLimit = *req.PerUserLimit
	}
	if req.MinPurchase != nil {
		if *req.MinPurchase == "" {
			coupon.MinPurchase = decimal.NullDecimal{}
		} else {
			min, err := decimal.NewFromString(*req.MinPurchase)
			if err != nil {
				return nil, errors.New("min_purchase must be a decimal")
			}
			coupon.MinPurchase = decimal.NewNullDecimal(min)
		}
	}
	if req.AllowOnSale != nil {
		coupon.AllowOnSale = *req.AllowOnSale
	}
	if req.ProductIDs != nil {
		coupon.ProductIDs = pq.StringArray(req.ProductIDs)
	}

	if err := s.db.Save(&coupon).Error; err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	return &coupon, nil
}

func (s *CouponService) GetCoupon(id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (s *CouponService) ListCoupons(params utils.PaginationParams) ([]models.Coupon, int64, error) {
	query := s.db.Model(&models.Coupon{})

	if params.Search != "" {
		query = query.Where("code ILIKE ?", "%"+params.Search+"%")
	}
	if params.Status == "active" {
		query = query.Where("active = ?", true)
	} else if params.Status == "inactive" {
		query = query.Where("active = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	allowedSortFields := []string{"created_at", "code", "used_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var coupons []models.Coupon
	if err := query.Find(&coupons).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch coupons: %w", err)
	}

	return coupons, total, nil
}
