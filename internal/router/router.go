// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/handlers"
	"github.com/craftpress/shop-backend/internal/middleware"
	"github.com/craftpress/shop-backend/internal/services"
	"github.com/craftpress/shop-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	authorizationService := services.NewAuthorizationService()

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db, storageService)
	couponService := services.NewCouponService(db)
	checkoutService := services.NewCheckoutService(db, cfg, couponService)
	settlementService := services.NewSettlementService(db, cfg, notificationService)
	fulfillmentService := services.NewFulfillmentService(db, storageService)
	quoteService := services.NewQuoteService(db, storageService, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	couponHandler := handlers.NewCouponHandler(couponService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(cfg, settlementService)
	downloadHandler := handlers.NewDownloadHandler(fulfillmentService)
	quoteHandler := handlers.NewQuoteHandler(quoteService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS([]string{cfg.Frontend.BaseURL}))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		// Storefront routes (public)
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:slug", productHandler.GetProduct)
		}

		// Coupon preview (advisory only; checkout revalidates)
		coupons := v1.Group("/coupons")
		{
			coupons.POST("/validate", middleware.OptionalAuth(), couponHandler.ValidateCoupon)
		}

		// Checkout
		checkout := v1.Group("/checkout")
		checkout.Use(middleware.CheckoutRateLimit())
		{
			checkout.POST("", middleware.OptionalAuth(), checkoutHandler.CreateSession)
		}

		// Payment provider webhooks. Signature verification is the only
		// authentication; no session middleware applies.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/stripe", webhookHandler.HandleStripeWebhook)
		}

		// Download fulfillment: the token is the credential
		downloads := v1.Group("/downloads")
		{
			downloads.GET("/:token", downloadHandler.Download)
		}

		// Buyer-facing authenticated routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.GET("", downloadHandler.ListMyPurchases)
		}

		// Quote negotiation
		quotes := v1.Group("/quotes")
		{
			quotes.POST("", middleware.UploadRateLimit(), quoteHandler.CreateQuoteRequest)

			protected := quotes.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("", quoteHandler.ListMyQuotes)
				protected.GET("/:id", quoteHandler.GetQuote)
				protected.POST("/:id/respond", quoteHandler.RespondToQuote)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			adminProducts := admin.Group("/products")
			adminProducts.Use(middleware.RequireCapability(authorizationService, services.CapProductsEdit))
			{
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.POST("/:id/file", middleware.UploadRateLimit(), productHandler.UploadProductFile)
			}

			adminCoupons := admin.Group("/coupons")
			adminCoupons.Use(middleware.RequireCapability(authorizationService, services.CapCouponsEdit))
			{
				adminCoupons.GET("", couponHandler.ListCoupons)
				adminCoupons.POST("", couponHandler.CreateCoupon)
				adminCoupons.GET("/:id", couponHandler.GetCoupon)
				adminCoupons.PUT("/:id", couponHandler.UpdateCoupon)
			}

			adminQuotes := admin.Group("/quotes")
			adminQuotes.Use(middleware.RequireCapability(authorizationService, services.CapQuotesEdit))
			{
				adminQuotes.GET("", quoteHandler.ListQuotes)
				adminQuotes.POST("/:id/quote", quoteHandler.SubmitQuote)
				adminQuotes.DELETE("/:id", quoteHandler.DeleteQuote)
			}
		}
	}

	return r
}
