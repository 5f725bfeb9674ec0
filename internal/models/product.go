// internal/models/product.go
package models

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Title       string              `json:"title" gorm:"size:255;not null"`
	Slug        string              `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Description string              `json:"description" gorm:"type:text"`
	Category    string              `json:"category" gorm:"size:100;index"`
	Price       decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(10,2)"`
	OnSale      bool                `json:"on_sale" gorm:"default:false"`
	Currency    string              `json:"currency" gorm:"size:3;not null;default:'EUR'"`
	Published   bool                `json:"published" gorm:"default:false;index"`
	FileType    FileType            `json:"file_type" gorm:"type:varchar(20);not null;default:'digital'"`
	FileKey     string              `json:"-" gorm:"size:512"`
	FileName    string              `json:"file_name" gorm:"size:255"`
	Images      pq.StringArray      `json:"images" gorm:"type:text[]"`
	Tags        pq.StringArray      `json:"tags" gorm:"type:text[]"`
	SalesCount  int64               `json:"sales_count" gorm:"default:0"`
}

// EffectivePrice is the price checkout and validation work from: the sale
// price when the product is on sale and one is set, the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.OnSale && p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// HasSalePrice reports whether a discounted list price is in effect.
func (p *Product) HasSalePrice() bool {
	return p.OnSale && p.SalePrice.Valid
}
