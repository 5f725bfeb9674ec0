// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type DigitalPurchase struct {
	BaseModel
	ProductID        uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	UserEmail        string     `json:"user_email" gorm:"size:255;not null;index"`
	DownloadToken    string     `json:"download_token" gorm:"uniqueIndex;size:64;not null"`
	DownloadCount    int        `json:"download_count" gorm:"not null;default:0"`
	MaxDownloads     int        `json:"max_downloads" gorm:"not null;default:3"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"not null"`
	StripeSessionID  string     `json:"stripe_session_id" gorm:"uniqueIndex;size:255;not null"`
	CouponID         *uuid.UUID `json:"coupon_id" gorm:"type:uuid;index"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Coupon  *Coupon `json:"coupon,omitempty" gorm:"foreignKey:CouponID"`
}

// Downloadable reports whether the entitlement still grants access: the
// download budget is not exhausted and the window has not passed.
func (p *DigitalPurchase) Downloadable(now time.Time) bool {
	return p.DownloadCount < p.MaxDownloads && now.Before(p.ExpiresAt)
}
