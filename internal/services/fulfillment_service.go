// internal/services/fulfillment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/utils"
)

var (
	// ErrDownloadNotFound means the token matches nothing.
	ErrDownloadNotFound = errors.New("download token not found")
	// ErrDownloadGone means the entitlement existed but no longer grants
	// access: expired window or exhausted budget.
	ErrDownloadGone = errors.New("download expired or budget exhausted")
)

type FulfillmentService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewFulfillmentService(db *gorm.DB, storage *StorageService) *FulfillmentService {
	return &FulfillmentService{
		db:      db,
		storage: storage,
	}
}

// ResolveDownload maps an opaque token to a still-valid entitlement and its
// product. The two failure modes are distinct so the handler can answer 404
// for an unknown token and 410 for a spent or expired one.
func (s *FulfillmentService) ResolveDownload(token string) (*models.DigitalPurchase, *models.Product, error) {
	var purchase models.DigitalPurchase
	if err := s.db.Preload("Product").Where("download_token = ?", token).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDownloadNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up download: %w", err)
	}

	if !purchase.Downloadable(time.Now()) {
		return nil, nil, ErrDownloadGone
	}

	if purchase.Product.FileKey == "" {
		return nil, nil, fmt.Errorf("product %s has no stored file", purchase.ProductID)
	}

	return &purchase, &purchase.Product, nil
}

// FetchFile streams the product archive for a resolved download.
func (s *FulfillmentService) FetchFile(product *models.Product) (*StoredObject, error) {
	return s.storage.FetchFile(product.FileKey)
}

// RegisterDownload burns one unit of the download budget after the bytes
// were handed to the client.
func (s *FulfillmentService) RegisterDownload(purchase *models.DigitalPurchase) error {
	now := time.Now()
	return s.db.Model(purchase).Updates(map[string]interface{}{
		"download_count":     gorm.Expr("download_count + 1"),
		"last_downloaded_at": &now,
	}).Error
}

// ListPurchasesByEmail returns a buyer's entitlements for their account page.
func (s *FulfillmentService) ListPurchasesByEmail(email string, params utils.PaginationParams) ([]models.DigitalPurchase, int64, error) {
	query := s.db.Model(&models.DigitalPurchase{}).
		Preload("Product").
		Where("LOWER(user_email) = LOWER(?)", email)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "expires_at"})
	query = utils.ApplyPagination(query, params)

	var purchases []models.DigitalPurchase
	if err := query.Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	return purchases, total, nil
}
