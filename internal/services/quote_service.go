// internal/services/quote_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/utils"
)

var (
	ErrInvalidTransition = errors.New("transition not permitted in the quote's current status")
	ErrQuoteNotOwner     = errors.New("quote belongs to another buyer")
	ErrMessageRequired   = errors.New("a message is required for a counter offer")
)

// QuoteAction is a buyer-side response to a quoted price.
type QuoteAction string

const (
	QuoteActionAccept       QuoteAction = "accept"
	QuoteActionDecline      QuoteAction = "decline"
	QuoteActionCounterOffer QuoteAction = "counter_offer"
)

type QuoteService struct {
	db            *gorm.DB
	storage       *StorageService
	notifications *NotificationService
}

func NewQuoteService(db *gorm.DB, storage *StorageService, notifications *NotificationService) *QuoteService {
	return &QuoteService{
		db:            db,
		storage:       storage,
		notifications: notifications,
	}
}

// CanQuote reports whether an operator may submit a price from the current
// status. Quotes go out on fresh requests and re-openings; an accepted or
// declined negotiation can be re-quoted only after the buyer re-opens it via
// a counter offer (decline is terminal but a new offer may still be extended
// on a declined request to restart the loop).
func CanQuote(status models.QuoteStatus) bool {
	return status == models.QuoteStatusPending || status == models.QuoteStatusUserDeclined
}

// CanRespond reports whether a buyer-side action is permitted from the
// current status. All three actions require an outstanding offer.
func CanRespond(status models.QuoteStatus, action QuoteAction) bool {
	switch action {
	case QuoteActionAccept, QuoteActionDecline, QuoteActionCounterOffer:
		return status == models.QuoteStatusQuoted
	default:
		return false
	}
}

// ApplyQuoteResponse applies a buyer action to the quote in place and returns
// the message to append to the negotiation log. The quote is left untouched
// when the action is rejected.
func ApplyQuoteResponse(quote *models.QuoteRequest, action QuoteAction, message string) (string, error) {
	if !CanRespond(quote.Status, action) {
		return "", ErrInvalidTransition
	}

	message = strings.TrimSpace(message)

	switch action {
	case QuoteActionAccept:
		quote.Status = models.QuoteStatusAccepted
		if message == "" {
			message = "Accepted the quoted price."
		}
	case QuoteActionDecline:
		quote.Status = models.QuoteStatusUserDeclined
		quote.UserResponse = message
		if message == "" {
			message = "Declined the quoted price."
		}
	case QuoteActionCounterOffer:
		// A counter offer without a message gives the operator nothing to act
		// on, so the loop is only re-opened with one.
		if message == "" {
			return "", ErrMessageRequired
		}
		quote.Status = models.QuoteStatusPending
		quote.UserResponse = message
	}

	return message, nil
}

// ShouldMarkViewed reports whether a buyer opening the request right now is
// seeing an outstanding offer for the first time. Requests with no offer on
// the table have nothing to stamp.
func ShouldMarkViewed(quote *models.QuoteRequest) bool {
	return quote.Status == models.QuoteStatusQuoted && quote.ViewedAt == nil
}

type CreateQuoteRequestInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"max=30"`
	Details   string    `json:"details" validate:"max=5000"`
	FileKey   string    `json:"-"`
	FileName  string    `json:"-"`
}

func (s *QuoteService) CreateQuoteRequest(input *CreateQuoteRequestInput) (*models.QuoteRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", input.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	number, err := utils.GenerateQuoteNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote number: %w", err)
	}

	quote := &models.QuoteRequest{
		QuoteNumber: number,
		ProductID:   product.ID,
		Name:        input.Name,
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       input.Phone,
		Details:     input.Details,
		FileKey:     input.FileKey,
		FileName:    input.FileName,
		Status:      models.QuoteStatusPending,
	}

	if err := s.db.Create(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	return quote, nil
}

type SubmitQuoteRequest struct {
	QuotedPrice string `json:"quoted_price" validate:"required"`
	AdminNotes  string `json:"admin_notes,omitempty" validate:"max=5000"`
	Message     string `json:"message,omitempty" validate:"max=5000"`
}

// SubmitQuote is the operator transition into quoted: it sets the price,
// stamps quoted_at, clears viewed_at so the buyer's unseen-offer indicator
// re-arms, and appends an admin message carrying the price.
func (s *QuoteService) SubmitQuote(id uuid.UUID, req *SubmitQuoteRequest) (*models.QuoteRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	price, err := decimal.NewFromString(req.QuotedPrice)
	if err != nil || !price.IsPositive() {
		return nil, errors.New("quoted price must be a positive decimal")
	}

	var quote models.QuoteRequest
	if err := s.db.First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if !CanQuote(quote.Status) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	quote.Status = models.QuoteStatusQuoted
	quote.QuotedPrice = decimal.NewNullDecimal(price.Round(2))
	quote.QuotedAt = &now
	quote.ViewedAt = nil
	if req.AdminNotes != "" {
		quote.AdminNotes = req.AdminNotes
	}

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Quoted price: %s", price.Round(2).StringFixed(2))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&quote).Error; err != nil {
			return fmt.Errorf("failed to update quote request: %w", err)
		}
		msg := &models.QuoteMessage{
			QuoteRequestID: quote.ID,
			Sender:         models.QuoteSenderAdmin,
			Message:        message,
			Price:          quote.QuotedPrice,
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to append quote message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		if err := s.notifications.SendQuoteQuotedEmail(&quote); err != nil {
			// Notification failure never rolls the quote back
			logrus.WithError(err).WithField("quote_id", quote.ID).Warn("Failed to send quote notification")
		}
	}

	return &quote, nil
}

type RespondToQuoteRequest struct {
	Action  QuoteAction `json:"action" validate:"required,oneof=accept decline counter_offer"`
	Message string      `json:"message,omitempty" validate:"max=5000"`
}

// RespondToQuote drives the buyer-side transitions. Only the owning buyer
// (matched by email) may respond, and only while an offer is outstanding.
func (s *QuoteService) RespondToQuote(id uuid.UUID, buyerEmail string, req *RespondToQuoteRequest) (*models.QuoteRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var quote models.QuoteRequest
	if err := s.db.First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if !strings.EqualFold(quote.Email, buyerEmail) {
		return nil, ErrQuoteNotOwner
	}

	message, err := ApplyQuoteResponse(&quote, req.Action, req.Message)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&quote).Error; err != nil {
			return fmt.Errorf("failed to update quote request: %w", err)
		}
		msg := &models.QuoteMessage{
			QuoteRequestID: quote.ID,
			Sender:         models.QuoteSenderUser,
			Message:        message,
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to append quote message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &quote, nil
}

// MarkViewed stamps the buyer's first sight of the current offer. Submitting
// a new quote clears the stamp again.
func (s *QuoteService) MarkViewed(id uuid.UUID, buyerEmail string) error {
	var quote models.QuoteRequest
	if err := s.db.First(&quote, "id = ?", id).Error; err != nil {
		return err
	}

	if !strings.EqualFold(quote.Email, buyerEmail) {
		return ErrQuoteNotOwner
	}

	if !ShouldMarkViewed(&quote) {
		return nil
	}

	now := time.Now()
	return s.db.Model(&quote).Update("viewed_at", &now).Error
}

func (s *QuoteService) GetQuote(id uuid.UUID) (*models.QuoteRequest, error) {
	var quote models.QuoteRequest
	if err := s.db.Preload("Product").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *QuoteService) ListQuotes(params utils.PaginationParams) ([]models.QuoteRequest, int64, error) {
	query := s.db.Model(&models.QuoteRequest{}).Preload("Product")

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Search != "" {
		query = query.Where("quote_number ILIKE ? OR email ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quote requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "quoted_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var quotes []models.QuoteRequest
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quote requests: %w", err)
	}

	return quotes, total, nil
}

func (s *QuoteService) ListQuotesByEmail(email string, params utils.PaginationParams) ([]models.QuoteRequest, int64, error) {
	query := s.db.Model(&models.QuoteRequest{}).
		Preload("Product").
		Where("LOWER(email) = LOWER(?)", email)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quote requests: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "status"})
	query = utils.ApplyPagination(query, params)

	var quotes []models.QuoteRequest
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quote requests: %w", err)
	}

	return quotes, total, nil
}

// DeleteQuote hard-deletes a request together with its attached reference
// file; the blob must never outlive the row.
func (s *QuoteService) DeleteQuote(id uuid.UUID) error {
	var quote models.QuoteRequest
	if err := s.db.First(&quote, "id = ?", id).Error; err != nil {
		return err
	}

	if quote.FileKey != "" && s.storage != nil {
		if err := s.storage.DeleteFile(quote.FileKey); err != nil {
			return fmt.Errorf("failed to delete reference file: %w", err)
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("quote_request_id = ?", quote.ID).Delete(&models.QuoteMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete quote messages: %w", err)
		}
		return tx.Unscoped().Delete(&quote).Error
	})
}
