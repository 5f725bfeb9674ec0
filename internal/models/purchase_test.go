// internal/models/purchase_test.go
package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDownloadable(t *testing.T) {
	now := time.Now()

	purchase := DigitalPurchase{
		DownloadCount: 0,
		MaxDownloads:  3,
		ExpiresAt:     now.Add(24 * time.Hour),
	}
	assert.True(t, purchase.Downloadable(now))

	exhausted := purchase
	exhausted.DownloadCount = 3
	assert.False(t, exhausted.Downloadable(now))

	expired := purchase
	expired.ExpiresAt = now.Add(-time.Minute)
	assert.False(t, expired.Downloadable(now))
}

func TestEffectivePrice(t *testing.T) {
	product := Product{
		Price:    decimal.RequireFromString("20.00"),
		Currency: "EUR",
	}
	assert.Equal(t, "20.00", product.EffectivePrice().StringFixed(2))
	assert.False(t, product.HasSalePrice())

	product.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("15.00"))
	// A sale price only takes effect when the product is flagged on sale
	assert.Equal(t, "20.00", product.EffectivePrice().StringFixed(2))

	product.OnSale = true
	assert.Equal(t, "15.00", product.EffectivePrice().StringFixed(2))
	assert.True(t, product.HasSalePrice())
}
