// internal/models/quote.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuoteRequest struct {
	BaseModel
	QuoteNumber  string              `json:"quote_number" gorm:"uniqueIndex;size:32;not null"`
	ProductID    uuid.UUID           `json:"product_id" gorm:"type:uuid;not null;index"`
	Name         string              `json:"name" gorm:"size:100;not null"`
	Email        string              `json:"email" gorm:"size:255;not null;index"`
	Phone        string              `json:"phone" gorm:"size:30"`
	Details      string              `json:"details" gorm:"type:text"`
	FileKey      string              `json:"-" gorm:"size:512"`
	FileName     string              `json:"file_name" gorm:"size:255"`
	Status       QuoteStatus         `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	QuotedPrice  decimal.NullDecimal `json:"quoted_price" gorm:"type:decimal(10,2)"`
	AdminNotes   string              `json:"admin_notes,omitempty" gorm:"type:text"`
	UserResponse string              `json:"user_response,omitempty" gorm:"type:text"`
	ViewedAt     *time.Time          `json:"viewed_at"`
	QuotedAt     *time.Time          `json:"quoted_at"`

	// Relationships
	Product  Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Messages []QuoteMessage `json:"messages,omitempty" gorm:"foreignKey:QuoteRequestID"`
}

// QuoteMessage is an append-only log entry; the negotiation's audit trail is
// the union of all rows ordered by creation time.
type QuoteMessage struct {
	BaseModel
	QuoteRequestID uuid.UUID           `json:"quote_request_id" gorm:"type:uuid;not null;index"`
	Sender         QuoteSender         `json:"sender" gorm:"type:varchar(10);not null"`
	Message        string              `json:"message" gorm:"type:text;not null"`
	Price          decimal.NullDecimal `json:"price" gorm:"type:decimal(10,2)"`
}
