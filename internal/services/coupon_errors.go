// internal/services/coupon_errors.go
package services

import (
	"github.com/craftpress/shop-backend/internal/i18n"
)

// CouponErrorCode is the closed set of reasons a coupon can fail validation.
// Callers switch on the code to render localized messages; free-text reasons
// are never produced.
type CouponErrorCode string

const (
	CouponCodeNotFound         CouponErrorCode = "NotFound"
	CouponCodeInactive         CouponErrorCode = "Inactive"
	CouponCodeNotStarted       CouponErrorCode = "NotStarted"
	CouponCodeExpired          CouponErrorCode = "Expired"
	CouponCodeMaxUses          CouponErrorCode = "MaxUses"
	CouponCodeUserLimit        CouponErrorCode = "UserLimit"
	CouponCodeWrongProduct     CouponErrorCode = "WrongProduct"
	CouponCodeProductNotFound  CouponErrorCode = "ProductNotFound"
	CouponCodeNotOnSale        CouponErrorCode = "NotOnSale"
	CouponCodeMinPurchase      CouponErrorCode = "MinPurchase"
	CouponCodeCurrencyMismatch CouponErrorCode = "CurrencyMismatch"
)

type CouponError struct {
	Code CouponErrorCode
}

func NewCouponError(code CouponErrorCode) *CouponError {
	return &CouponError{Code: code}
}

func (e *CouponError) Error() string {
	return "coupon validation failed: " + string(e.Code)
}

var couponErrorKeys = map[CouponErrorCode]string{
	CouponCodeNotFound:         i18n.KeyCouponNotFound,
	CouponCodeInactive:         i18n.KeyCouponInactive,
	CouponCodeNotStarted:       i18n.KeyCouponNotStarted,
	CouponCodeExpired:          i18n.KeyCouponExpired,
	CouponCodeMaxUses:          i18n.KeyCouponMaxUses,
	CouponCodeUserLimit:        i18n.KeyCouponUserLimit,
	CouponCodeWrongProduct:     i18n.KeyCouponWrongProduct,
	CouponCodeProductNotFound:  i18n.KeyCouponProductNotFound,
	CouponCodeNotOnSale:        i18n.KeyCouponNotOnSale,
	CouponCodeMinPurchase:      i18n.KeyCouponMinPurchase,
	CouponCodeCurrencyMismatch: i18n.KeyCouponCurrencyMismatch,
}

// LocalizedMessage renders the buyer-facing message for the error in the
// requested language.
func (e *CouponError) LocalizedMessage(lang string) string {
	if key, ok := couponErrorKeys[e.Code]; ok {
		return i18n.T(lang, key)
	}
	return e.Error()
}
