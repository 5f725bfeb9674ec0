// internal/handlers/download.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftpress/shop-backend/internal/i18n"
	"github.com/craftpress/shop-backend/internal/services"
	"github.com/craftpress/shop-backend/internal/utils"
)

type DownloadHandler struct {
	fulfillmentService *services.FulfillmentService
}

func NewDownloadHandler(fulfillmentService *services.FulfillmentService) *DownloadHandler {
	return &DownloadHandler{
		fulfillmentService: fulfillmentService,
	}
}

// GET /downloads/:token
//
// Streams the purchased archive through the server; the storage bucket stays
// private and the token is the only credential. An unknown token is 404, a
// spent or expired one is 410.
func (h *DownloadHandler) Download(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	purchase, product, err := h.fulfillmentService.ResolveDownload(c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDownloadNotFound):
			utils.NotFoundResponse(c, "download")
		case errors.Is(err, services.ErrDownloadGone):
			utils.GoneResponse(c, i18n.T(lang, i18n.KeyDownloadExpired))
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	object, err := h.fulfillmentService.FetchFile(product)
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to fetch product archive")
		utils.InternalErrorResponse(c, "")
		return
	}
	defer object.Body.Close()

	// The counter moves before the bytes do; a half-finished transfer still
	// spends an attempt.
	if err := h.fulfillmentService.RegisterDownload(purchase); err != nil {
		logrus.WithError(err).WithField("purchase_id", purchase.ID).Warn("Failed to register download")
	}

	fileName := product.FileName
	if fileName == "" {
		fileName = product.Slug + ".zip"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", object.ContentType)
	if object.ContentLength > 0 {
		c.Header("Content-Length", strconv.FormatInt(object.ContentLength, 10))
	}
	c.Status(http.StatusOK)
	io.Copy(c.Writer, object.Body)
}

// GET /purchases
func (h *DownloadHandler) ListMyPurchases(c *gin.Context) {
	email, exists := utils.GetUserEmailFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	purchases, total, err := h.fulfillmentService.ListPurchasesByEmail(email, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(purchases, total, params))
}
