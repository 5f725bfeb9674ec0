// Project Structure Overview
/*
shop-backend/
├── cmd/
│   └── server/
│       └── main.go
├── internal/
│   ├── config/
│   │   └── config.go
│   ├── models/
│   │   ├── common.go
│   │   ├── user.go
│   │   ├── product.go
│   │   ├── coupon.go
│   │   ├── quote.go
│   │   ├── purchase.go
│   │   └── audit.go
│   ├── handlers/
│   │   ├── auth.go
│   │   ├── product.go
│   │   ├── coupon.go
│   │   ├── checkout.go
│   │   ├── webhook.go
│   │   ├── quote.go
│   │   └── download.go
│   ├── services/
│   │   ├── auth_service.go
│   │   ├── authorization_service.go
│   │   ├── product_service.go
│   │   ├── pricing_service.go
│   │   ├── coupon_service.go
│   │   ├── coupon_errors.go
│   │   ├── checkout_service.go
│   │   ├── settlement_service.go
│   │   ├── quote_service.go
│   │   ├── fulfillment_service.go
│   │   ├── storage_service.go
│   │   └── notification_service.go
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── rate_limit.go
│   │   ├── i18n.go
│   │   └── logging.go
│   ├── database/
│   │   └── connection.go
│   ├── i18n/
│   │   ├── i18n.go
│   │   ├── locales/
│   │   │   ├── en.json
│   │   │   └── zh_TW.json
│   │   └── keys.go
│   ├── utils/
│   │   ├── jwt.go
│   │   ├── validator.go
│   │   ├── crypto.go
│   │   ├── pagination.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
└── go.sum
*/

package shopbackend

// This file shows the project structure and main entry point
// The actual implementation will be in separate files as shown in the structure above
