// internal/handlers/webhook_test.go
package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpress/shop-backend/internal/config"
	"github.com/craftpress/shop-backend/internal/models"
)

const testWebhookSecret = "whsec_test_secret"

type reconcilerStub struct {
	calls int
	err   error
}

func (s *reconcilerStub) Reconcile(sessionID, buyerEmail string, metadata map[string]string) (*models.DigitalPurchase, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.DigitalPurchase{StripeSessionID: sessionID, UserEmail: buyerEmail}, nil
}

func signPayload(payload []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookRouter(settlement settlementReconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Payment.StripeWebhookSecret = testWebhookSecret

	handler := NewWebhookHandler(cfg, settlement)

	r := gin.New()
	r.POST("/v1/webhooks/stripe", handler.HandleStripeWebhook)
	return r
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	router := newWebhookRouter(&reconcilerStub{})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	req, _ := http.NewRequest("POST", "/v1/webhooks/stripe", bytes.NewBuffer(payload))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router := newWebhookRouter(&reconcilerStub{})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	req, _ := http.NewRequest("POST", "/v1/webhooks/stripe", bytes.NewBuffer(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload, "whsec_wrong_secret"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookAcksIgnoredEventTypes(t *testing.T) {
	router := newWebhookRouter(&reconcilerStub{})

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","api_version":"2022-11-15","data":{"object":{}}}`)
	req, _ := http.NewRequest("POST", "/v1/webhooks/stripe", bytes.NewBuffer(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload, testWebhookSecret))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["received"])
}

func TestWebhookAcksVerifiedEventWhenSettlementFails(t *testing.T) {
	stub := &reconcilerStub{err: errors.New("database unavailable")}
	router := newWebhookRouter(stub)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","api_version":"2022-11-15","data":{"object":{"id":"cs_test_1","customer_email":"buyer@example.com","metadata":{"product_id":"6e3b6f0a-58d0-4f7a-9f39-2f6e9a9b1c11"}}}}`)
	req, _ := http.NewRequest("POST", "/v1/webhooks/stripe", bytes.NewBuffer(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload, testWebhookSecret))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The provider redelivers on non-2xx; a settlement failure must still ack.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["received"])
}

func TestWebhookPassesSessionToSettlement(t *testing.T) {
	stub := &reconcilerStub{}
	router := newWebhookRouter(stub)

	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","api_version":"2022-11-15","data":{"object":{"id":"cs_test_2","customer_email":"buyer@example.com","metadata":{"product_id":"6e3b6f0a-58d0-4f7a-9f39-2f6e9a9b1c11"}}}}`)
	req, _ := http.NewRequest("POST", "/v1/webhooks/stripe", bytes.NewBuffer(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload, testWebhookSecret))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)
}
