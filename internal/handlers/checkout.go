// internal/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftpress/shop-backend/internal/i18n"
	"github.com/craftpress/shop-backend/internal/services"
	"github.com/craftpress/shop-backend/internal/utils"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

type createCheckoutRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	Email      string `json:"email,omitempty"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// resolveBuyerEmail picks the email that identifies the buyer for coupon
// checks. A logged-in buyer's session email wins over the one typed into the
// form, so a buyer cannot dodge a per-user limit by submitting someone
// else's address.
func resolveBuyerEmail(c *gin.Context, bodyEmail string) string {
	if email, ok := utils.GetUserEmailFromContext(c); ok {
		return email
	}
	return bodyEmail
}

// POST /checkout
//
// The price is always re-derived server-side and the coupon revalidated here;
// a stale preview does not carry any authority into this call.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	buyerEmail := resolveBuyerEmail(c, req.Email)

	response, cerr, err := h.checkoutService.CreateSession(productID, buyerEmail, req.CouponCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrProductUnpublished):
			utils.ErrorResponse(c, http.StatusConflict, "UNPUBLISHED", i18n.T(lang, i18n.KeyCheckoutUnpublished), nil)
		case errors.Is(err, services.ErrProductNotDigital):
			utils.ErrorResponse(c, http.StatusConflict, "NOT_DIGITAL", i18n.T(lang, i18n.KeyCheckoutNotDigital), nil)
		default:
			utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyCheckoutFailed))
		}
		return
	}

	// A failed coupon fails the whole checkout rather than silently charging
	// full price.
	if cerr != nil {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, string(cerr.Code), cerr.LocalizedMessage(lang), nil)
		return
	}

	utils.SuccessResponse(c, response)
}
