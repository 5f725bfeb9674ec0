// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminActionSuccess = "admin.action_success"

	// Coupons
	KeyCouponNotFound         = "coupon.not_found"
	KeyCouponInactive         = "coupon.inactive"
	KeyCouponNotStarted       = "coupon.not_started"
	KeyCouponExpired          = "coupon.expired"
	KeyCouponMaxUses          = "coupon.max_uses"
	KeyCouponUserLimit        = "coupon.user_limit"
	KeyCouponWrongProduct     = "coupon.wrong_product"
	KeyCouponProductNotFound  = "coupon.product_not_found"
	KeyCouponNotOnSale        = "coupon.not_on_sale"
	KeyCouponMinPurchase      = "coupon.min_purchase"
	KeyCouponCurrencyMismatch = "coupon.currency_mismatch"
	KeyCouponCreated          = "coupon.created"
	KeyCouponUpdated          = "coupon.updated"
	KeyCouponCodeExists       = "coupon.code_exists"

	// Products
	KeyProductNotFound     = "product.not_found"
	KeyProductNotAvailable = "product.not_available"

	// Checkout
	KeyCheckoutFailed      = "checkout.failed"
	KeyCheckoutNotDigital  = "checkout.not_digital"
	KeyCheckoutUnpublished = "checkout.unpublished"

	// Quotes
	KeyQuoteCreated           = "quote.created"
	KeyQuoteNotFound          = "quote.not_found"
	KeyQuoteUpdated           = "quote.updated"
	KeyQuoteResponded         = "quote.responded"
	KeyQuoteInvalidTransition = "quote.invalid_transition"
	KeyQuoteMessageRequired   = "quote.message_required"
	KeyQuoteNotOwner          = "quote.not_owner"

	// Downloads
	KeyDownloadNotFound  = "download.not_found"
	KeyDownloadExpired   = "download.expired"
	KeyDownloadExhausted = "download.exhausted"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
)
