// internal/handlers/quote.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/i18n"
	"github.com/craftpress/shop-backend/internal/services"
	"github.com/craftpress/shop-backend/internal/utils"
)

type QuoteHandler struct {
	quoteService   *services.QuoteService
	storageService *services.StorageService
}

func NewQuoteHandler(quoteService *services.QuoteService, storageService *services.StorageService) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		storageService: storageService,
	}
}

// POST /quotes
//
// Multipart intake so the buyer can attach a reference file alongside the
// request details.
func (h *QuoteHandler) CreateQuoteRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	productID, err := uuid.Parse(c.PostForm("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	input := &services.CreateQuoteRequestInput{
		ProductID: productID,
		Name:      c.PostForm("name"),
		Email:     c.PostForm("email"),
		Phone:     c.PostForm("phone"),
		Details:   c.PostForm("details"),
	}

	if file, header, err := c.Request.FormFile("reference"); err == nil {
		defer file.Close()
		options := h.storageService.GetDefaultUploadOptions("quote_references")
		result, err := h.storageService.UploadFile(file, header, options)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
			return
		}
		input.FileKey = result.Key
		input.FileName = result.Name
	}

	quote, err := h.quoteService.CreateQuoteRequest(input)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, quote)
}

// GET /quotes
func (h *QuoteHandler) ListMyQuotes(c *gin.Context) {
	email, exists := utils.GetUserEmailFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	quotes, total, err := h.quoteService.ListQuotesByEmail(email, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(quotes, total, params))
}

// GET /quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	quote, err := h.quoteService.GetQuote(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "quote")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	// Buyers only see their own negotiations; operators see all of them.
	userType, _ := utils.GetUserTypeFromContext(c)
	if userType != "admin" {
		email, _ := utils.GetUserEmailFromContext(c)
		if !strings.EqualFold(quote.Email, email) {
			utils.NotFoundResponse(c, "quote")
			return
		}
		// First sight of an outstanding offer stamps viewed_at.
		if err := h.quoteService.MarkViewed(id, email); err != nil && !errors.Is(err, services.ErrQuoteNotOwner) {
			utils.InternalErrorResponse(c, "")
			return
		}
	}

	utils.SuccessResponse(c, quote)
}

// POST /quotes/:id/respond
func (h *QuoteHandler) RespondToQuote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	email, exists := utils.GetUserEmailFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RespondToQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	quote, err := h.quoteService.RespondToQuote(id, email, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.NotFoundResponse(c, "quote")
		case errors.Is(err, services.ErrQuoteNotOwner):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyQuoteNotOwner))
		case errors.Is(err, services.ErrInvalidTransition):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyQuoteInvalidTransition))
		case errors.Is(err, services.ErrMessageRequired):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyQuoteMessageRequired), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, quote)
}

// GET /admin/quotes
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	quotes, total, err := h.quoteService.ListQuotes(params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(quotes, total, params))
}

// POST /admin/quotes/:id/quote
func (h *QuoteHandler) SubmitQuote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	var req services.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	quote, err := h.quoteService.SubmitQuote(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.NotFoundResponse(c, "quote")
		case errors.Is(err, services.ErrInvalidTransition):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyQuoteInvalidTransition))
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, quote)
}

// DELETE /admin/quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	if err := h.quoteService.DeleteQuote(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "quote")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
