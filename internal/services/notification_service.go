// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"gorm.io/gorm"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendQuoteQuotedEmail tells the buyer a new offer is waiting.
func (s *NotificationService) SendQuoteQuotedEmail(quote *models.QuoteRequest) error {
	price := ""
	if quote.QuotedPrice.Valid {
		price = quote.QuotedPrice.Decimal.StringFixed(2)
	}

	data := map[string]interface{}{
		"Name":        quote.Name,
		"QuoteNumber": quote.QuoteNumber,
		"Price":       price,
		"QuoteURL":    fmt.Sprintf("%s/quotes/%s", s.config.Frontend.BaseURL, quote.ID),
	}

	subject := fmt.Sprintf("Your quote %s is ready", quote.QuoteNumber)
	body, err := s.renderTemplate(quoteQuotedTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(quote.Email, subject, body)
}

// SendPurchaseReceiptEmail delivers the download link after settlement.
func (s *NotificationService) SendPurchaseReceiptEmail(purchase *models.DigitalPurchase) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", purchase.ProductID).Error; err != nil {
		return fmt.Errorf("failed to load product for receipt: %w", err)
	}

	data := map[string]interface{}{
		"ProductTitle": product.Title,
		"DownloadURL":  fmt.Sprintf("%s/downloads/%s", s.config.Frontend.BaseURL, purchase.DownloadToken),
		"MaxDownloads": purchase.MaxDownloads,
		"ExpiresAt":    purchase.ExpiresAt.Format("January 2, 2006"),
	}

	subject := fmt.Sprintf("Your download for %s", product.Title)
	body, err := s.renderTemplate(purchaseReceiptTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(purchase.UserEmail, subject, body)
}

const quoteQuotedTemplate = `
<p>Hi {{.Name}},</p>
<p>We have quoted your request <strong>{{.QuoteNumber}}</strong> at <strong>{{.Price}}</strong>.</p>
<p>You can accept, decline, or reply with a counter offer here: <a href="{{.QuoteURL}}">{{.QuoteURL}}</a></p>
`

const purchaseReceiptTemplate = `
<p>Thank you for your purchase of <strong>{{.ProductTitle}}</strong>.</p>
<p>Your files are ready: <a href="{{.DownloadURL}}">download here</a>.</p>
<p>The link allows {{.MaxDownloads}} downloads and expires on {{.ExpiresAt}}.</p>
`

func (s *NotificationService) renderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, htmlBody string) error {
	if s.config.Email.SMTPUsername == "" {
		// Email is not configured in local development
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, htmlBody)

	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg))
}
