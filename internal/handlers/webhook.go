// internal/handlers/webhook.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
	"github.com/craftpress/shop-backend/internal/services"
)

const webhookMaxBodyBytes = int64(65536)

// settlementReconciler is the slice of SettlementService the webhook needs.
type settlementReconciler interface {
	Reconcile(sessionID, buyerEmail string, metadata map[string]string) (*models.DigitalPurchase, error)
}

type WebhookHandler struct {
	config     *config.Config
	settlement settlementReconciler
}

func NewWebhookHandler(cfg *config.Config, settlement settlementReconciler) *WebhookHandler {
	return &WebhookHandler{
		config:     cfg,
		settlement: settlement,
	}
}

// POST /webhooks/stripe
//
// Every verified event is acked with a 2xx no matter what happens while
// processing it. The provider redelivers until it sees one, and a retry loop
// on a persistent settlement failure just hammers the same error. Failures
// are logged at error level for the operator instead.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookMaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.config.Payment.StripeWebhookSecret)
	if err != nil {
		logrus.WithError(err).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(&event); err != nil {
			logrus.WithError(err).WithField("event_id", event.ID).Error("Failed to settle checkout session")
		}
	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Warn("Unparseable checkout session payload, acking")
		return nil
	}

	buyerEmail := session.CustomerEmail
	if buyerEmail == "" && session.CustomerDetails != nil {
		buyerEmail = session.CustomerDetails.Email
	}

	_, err := h.settlement.Reconcile(session.ID, buyerEmail, session.Metadata)
	if err != nil && errors.Is(err, services.ErrMissingMetadata) {
		logrus.WithField("session_id", session.ID).Warn("Completed session has no reconcilable metadata")
		return nil
	}
	return err
}
