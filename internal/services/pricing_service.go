// internal/services/pricing_service.go
package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/craftpress/shop-backend/internal/models"
)

// MinCharge is the smallest amount the payment provider will charge. Every
// discount is clamped so the final price never drops below it.
var MinCharge = decimal.New(50, -2)

var oneHundred = decimal.New(100, 0)

// PriceBreakdown is the priced outcome shared by the validation preview and
// checkout. All amounts carry exactly two decimal places.
type PriceBreakdown struct {
	Original decimal.Decimal `json:"original"`
	Discount decimal.Decimal `json:"discount_amount"`
	Final    decimal.Decimal `json:"final"`
	Currency string          `json:"product_currency"`
}

// ComputeDiscount maps a base price and a coupon definition to a discount and
// final price. It is a pure function: checkout re-runs it on the same inputs
// the preview saw and must get the same answer, which is why all arithmetic
// is decimal rather than float.
func ComputeDiscount(basePrice decimal.Decimal, couponType models.CouponType, value decimal.Decimal, couponCurrency, productCurrency string) (*PriceBreakdown, *CouponError) {
	var discount decimal.Decimal

	switch couponType {
	case models.CouponTypePercentage:
		discount = basePrice.Mul(value).Div(oneHundred)
	case models.CouponTypeFixed:
		// A fixed-amount coupon is denominated in a single currency; applying
		// it against a product in another currency would silently produce a
		// wrong amount, so it is rejected outright.
		if couponCurrency != "" && !strings.EqualFold(couponCurrency, productCurrency) {
			return nil, NewCouponError(CouponCodeCurrencyMismatch)
		}
		discount = value
	default:
		discount = decimal.Zero
	}

	// Clamp so the final price stays chargeable.
	maxDiscount := basePrice.Sub(MinCharge)
	if maxDiscount.IsNegative() {
		maxDiscount = decimal.Zero
	}
	if discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	// Round the discount first and derive the final price from the rounded
	// amount, so original - discount = final holds exactly and settlement's
	// usage row can never disagree with the charged amount.
	discount = discount.Round(2)
	if discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
	}

	final := basePrice.Sub(discount)
	if final.LessThan(MinCharge) {
		final = MinCharge
	}

	return &PriceBreakdown{
		Original: basePrice.Round(2),
		Discount: discount,
		Final:    final.Round(2),
		Currency: strings.ToUpper(productCurrency),
	}, nil
}

// Currencies whose minor unit is not the usual two decimal places, per the
// payment provider's currency support tables.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

var threeDecimalCurrencies = map[string]bool{
	"BHD": true, "JOD": true, "KWD": true, "OMR": true, "TND": true,
}

// MinorUnitExponent returns the number of decimal places of the currency's
// smallest unit (2 for EUR, 0 for JPY, 3 for KWD).
func MinorUnitExponent(currency string) int32 {
	code := strings.ToUpper(currency)
	switch {
	case zeroDecimalCurrencies[code]:
		return 0
	case threeDecimalCurrencies[code]:
		return 3
	default:
		return 2
	}
}

// ToMinorUnits converts a decimal amount to the integer minor units the
// payment provider expects (10.00 EUR -> 1000).
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	exp := MinorUnitExponent(currency)
	return amount.Shift(exp).Round(0).IntPart()
}
