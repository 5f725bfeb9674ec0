// internal/services/quote_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpress/shop-backend/internal/models"
)

func TestCanQuote(t *testing.T) {
	tests := []struct {
		status models.QuoteStatus
		want   bool
	}{
		{models.QuoteStatusPending, true},
		{models.QuoteStatusUserDeclined, true},
		{models.QuoteStatusQuoted, false},
		{models.QuoteStatusAccepted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanQuote(tt.status), "status %s", tt.status)
	}
}

func TestCanRespond(t *testing.T) {
	actions := []QuoteAction{QuoteActionAccept, QuoteActionDecline, QuoteActionCounterOffer}

	// Every buyer action requires an outstanding offer
	for _, action := range actions {
		assert.True(t, CanRespond(models.QuoteStatusQuoted, action), "action %s from quoted", action)
		assert.False(t, CanRespond(models.QuoteStatusPending, action), "action %s from pending", action)
		assert.False(t, CanRespond(models.QuoteStatusAccepted, action), "action %s from accepted", action)
		assert.False(t, CanRespond(models.QuoteStatusUserDeclined, action), "action %s from user_declined", action)
	}
}

func TestCanRespondRejectsUnknownAction(t *testing.T) {
	assert.False(t, CanRespond(models.QuoteStatusQuoted, QuoteAction("approve")))
	assert.False(t, CanRespond(models.QuoteStatusQuoted, QuoteAction("")))
}

func quotedRequest() *models.QuoteRequest {
	return &models.QuoteRequest{Status: models.QuoteStatusQuoted}
}

func TestApplyQuoteResponseAccept(t *testing.T) {
	quote := quotedRequest()

	message, err := ApplyQuoteResponse(quote, QuoteActionAccept, "")
	require.NoError(t, err)

	assert.Equal(t, models.QuoteStatusAccepted, quote.Status)
	assert.NotEmpty(t, message)
}

func TestApplyQuoteResponseDecline(t *testing.T) {
	quote := quotedRequest()

	message, err := ApplyQuoteResponse(quote, QuoteActionDecline, "too expensive")
	require.NoError(t, err)

	assert.Equal(t, models.QuoteStatusUserDeclined, quote.Status)
	assert.Equal(t, "too expensive", quote.UserResponse)
	assert.Equal(t, "too expensive", message)
}

func TestApplyQuoteResponseCounterOffer(t *testing.T) {
	quote := quotedRequest()

	message, err := ApplyQuoteResponse(quote, QuoteActionCounterOffer, "can you do 80?")
	require.NoError(t, err)

	assert.Equal(t, models.QuoteStatusPending, quote.Status)
	assert.Equal(t, "can you do 80?", quote.UserResponse)
	assert.Equal(t, "can you do 80?", message)
}

func TestApplyQuoteResponseCounterOfferRequiresMessage(t *testing.T) {
	quote := quotedRequest()

	_, err := ApplyQuoteResponse(quote, QuoteActionCounterOffer, "")
	assert.ErrorIs(t, err, ErrMessageRequired)

	// Whitespace-only is as empty as empty.
	_, err = ApplyQuoteResponse(quote, QuoteActionCounterOffer, "   ")
	assert.ErrorIs(t, err, ErrMessageRequired)

	assert.Equal(t, models.QuoteStatusQuoted, quote.Status)
	assert.Empty(t, quote.UserResponse)
}

func TestApplyQuoteResponseRejectsBadStatus(t *testing.T) {
	quote := &models.QuoteRequest{Status: models.QuoteStatusPending}

	_, err := ApplyQuoteResponse(quote, QuoteActionAccept, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.QuoteStatusPending, quote.Status)
}

func TestShouldMarkViewed(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		quote models.QuoteRequest
		want  bool
	}{
		{"outstanding offer not yet seen", models.QuoteRequest{Status: models.QuoteStatusQuoted}, true},
		{"offer already seen", models.QuoteRequest{Status: models.QuoteStatusQuoted, ViewedAt: &now}, false},
		{"no offer on the table", models.QuoteRequest{Status: models.QuoteStatusPending}, false},
		{"negotiation settled", models.QuoteRequest{Status: models.QuoteStatusAccepted}, false},
		{"buyer declined", models.QuoteRequest{Status: models.QuoteStatusUserDeclined}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldMarkViewed(&tt.quote), tt.name)
	}
}
