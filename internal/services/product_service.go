// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/utils"
)

type ProductService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewProductService(db *gorm.DB, storage *StorageService) *ProductService {
	return &ProductService{
		db:      db,
		storage: storage,
	}
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Slug        string   `json:"slug" validate:"required,max=255"`
	Description string   `json:"description,omitempty" validate:"max=10000"`
	Category    string   `json:"category,omitempty" validate:"max=100"`
	Price       string   `json:"price" validate:"required"`
	SalePrice   string   `json:"sale_price,omitempty"`
	OnSale      bool     `json:"on_sale,omitempty"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,currency_code"`
	Published   bool     `json:"published,omitempty"`
	FileType    string   `json:"file_type,omitempty" validate:"omitempty,oneof=digital physical"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return nil, errors.New("price must be a positive decimal")
	}

	product := &models.Product{
		Title:       req.Title,
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		OnSale:      req.OnSale,
		Currency:    strings.ToUpper(req.Currency),
		Published:   req.Published,
		FileType:    models.FileTypeDigital,
		Images:      pq.StringArray(req.Images),
		Tags:        pq.StringArray(req.Tags),
	}
	if product.Currency == "" {
		product.Currency = "EUR"
	}
	if req.FileType != "" {
		product.FileType = models.FileType(req.FileType)
	}
	if req.SalePrice != "" {
		sale, err := decimal.NewFromString(req.SalePrice)
		if err != nil || !sale.IsPositive() {
			return nil, errors.New("sale_price must be a positive decimal")
		}
		product.SalePrice = decimal.NewNullDecimal(sale)
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// AttachFile stores an uploaded product archive and links it to the product.
// A previously stored archive is removed from storage.
func (s *ProductService) AttachFile(id uuid.UUID, result *UploadResult) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}

	oldKey := product.FileKey
	product.FileKey = result.Key
	product.FileName = result.Name

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to attach file: %w", err)
	}

	if oldKey != "" && oldKey != result.Key && s.storage != nil {
		if err := s.storage.DeleteFile(oldKey); err != nil {
			return &product, fmt.Errorf("file attached but old archive not removed: %w", err)
		}
	}

	return &product, nil
}

func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("slug = ? AND published = ?", slug, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) GetByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) ListPublished(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("published = ?", true)

	if params.Search != "" {
		query = query.Where("title ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "title", "sales_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}
