// internal/models/coupon.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Coupon struct {
	BaseModel
	Code         string              `json:"code" gorm:"uniqueIndex;size:64;not null"`
	Type         CouponType          `json:"type" gorm:"type:varchar(20);not null"`
	Value        decimal.Decimal     `json:"value" gorm:"type:decimal(10,2);not null"`
	Currency     string              `json:"currency,omitempty" gorm:"size:3"`
	Active       bool                `json:"active" gorm:"default:true;index"`
	StartsAt     *time.Time          `json:"starts_at"`
	ExpiresAt    *time.Time          `json:"expires_at"`
	MaxUses      *int                `json:"max_uses"`
	UsedCount    int                 `json:"used_count" gorm:"not null;default:0"`
	PerUserLimit int                 `json:"per_user_limit" gorm:"not null;default:0"`
	MinPurchase  decimal.NullDecimal `json:"min_purchase" gorm:"type:decimal(10,2)"`
	AllowOnSale  bool                `json:"allow_on_sale" gorm:"default:true"`
	ProductIDs   pq.StringArray      `json:"product_ids" gorm:"type:text[]"`

	// Relationships
	Usages []CouponUsage `json:"usages,omitempty" gorm:"foreignKey:CouponID"`
}

// AppliesTo reports whether the coupon's product allow-list admits the
// product. An empty list admits every product.
func (c *Coupon) AppliesTo(productID uuid.UUID) bool {
	if len(c.ProductIDs) == 0 {
		return true
	}
	id := productID.String()
	for _, pid := range c.ProductIDs {
		if pid == id {
			return true
		}
	}
	return false
}

// CouponUsage is one row per successful redemption, immutable after
// settlement creates it.
type CouponUsage struct {
	BaseModel
	CouponID        uuid.UUID       `json:"coupon_id" gorm:"type:uuid;not null;index"`
	UserEmail       string          `json:"user_email" gorm:"size:255;not null;index"`
	OriginalPrice   decimal.Decimal `json:"original_price" gorm:"type:decimal(10,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:decimal(10,2);not null"`
	FinalPrice      decimal.Decimal `json:"final_price" gorm:"type:decimal(10,2);not null"`
	StripeSessionID string          `json:"stripe_session_id" gorm:"size:255"`

	// Relationships
	Coupon Coupon `json:"coupon,omitempty" gorm:"foreignKey:CouponID"`
}
