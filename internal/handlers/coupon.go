// internal/handlers/coupon.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/i18n"
	"github.com/craftpress/shop-backend/internal/services"
	"github.com/craftpress/shop-backend/internal/utils"
)

type CouponHandler struct {
	couponService *services.CouponService
}

func NewCouponHandler(couponService *services.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

type validateCouponRequest struct {
	Code      string `json:"code" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Email     string `json:"email,omitempty"`
}

type validateCouponResponse struct {
	Valid    bool                     `json:"valid"`
	Error    *validateCouponError     `json:"error,omitempty"`
	Coupon   *validateCouponSummary   `json:"coupon,omitempty"`
	Discount *services.PriceBreakdown `json:"discount,omitempty"`
}

type validateCouponError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type validateCouponSummary struct {
	Code  string `json:"code"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// POST /coupons/validate
//
// Advisory preview of a coupon against a product. Never mutates anything; the
// same validation re-runs at checkout and its outcome wins.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	// An anonymous buyer can supply an email in the body to preview the
	// per-user limit; with no email at all the check is skipped and re-runs
	// at checkout. Checkout resolves the email the same way.
	buyerEmail := resolveBuyerEmail(c, req.Email)

	valid, cerr, err := h.couponService.Validate(req.Code, productID, buyerEmail)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	if cerr != nil {
		utils.SuccessResponse(c, validateCouponResponse{
			Valid: false,
			Error: &validateCouponError{
				Code:    string(cerr.Code),
				Message: cerr.LocalizedMessage(lang),
			},
		})
		return
	}

	utils.SuccessResponse(c, validateCouponResponse{
		Valid: true,
		Coupon: &validateCouponSummary{
			Code:  valid.Coupon.Code,
			Type:  string(valid.Coupon.Type),
			Value: valid.Coupon.Value.String(),
		},
		Discount: valid.Breakdown,
	})
}

// POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	coupon, err := h.couponService.CreateCoupon(&req)
	if err != nil {
		if errors.Is(err, services.ErrCouponCodeExists) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCouponCodeExists))
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, coupon)
}

// GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	coupons, total, err := h.couponService.ListCoupons(params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(coupons, total, params))
}

// GET /admin/coupons/:id
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid coupon ID", nil)
		return
	}

	coupon, err := h.couponService.GetCoupon(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "coupon")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, coupon)
}

// PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid coupon ID", nil)
		return
	}

	var req services.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	coupon, err := h.couponService.UpdateCoupon(id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "coupon")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, coupon)
}
