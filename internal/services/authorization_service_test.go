// internal/services/authorization_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftpress/shop-backend/internal/models"
)

func TestAuthorizationCan(t *testing.T) {
	authz := NewAuthorizationService()

	assert.True(t, authz.Can(models.UserTypeAdmin, CapCouponsEdit))
	assert.True(t, authz.Can(models.UserTypeAdmin, CapQuotesEdit))
	assert.True(t, authz.Can(models.UserTypeAdmin, CapProductsEdit))

	assert.False(t, authz.Can(models.UserTypeBuyer, CapCouponsEdit))
	assert.False(t, authz.Can(models.UserTypeBuyer, CapQuotesEdit))
	assert.False(t, authz.Can(models.UserType("unknown"), CapCouponsEdit))
}

func TestAuthorizationCapabilitiesReturnsCopy(t *testing.T) {
	authz := NewAuthorizationService()

	caps := authz.Capabilities(models.UserTypeAdmin)
	assert.NotEmpty(t, caps)

	caps[0] = Capability("mutated")
	assert.True(t, authz.Can(models.UserTypeAdmin, CapCouponsEdit))
}

func TestAuthorizationBuyerHasNoCapabilities(t *testing.T) {
	authz := NewAuthorizationService()
	assert.Empty(t, authz.Capabilities(models.UserTypeBuyer))
}
