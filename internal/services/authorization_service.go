// internal/services/authorization_service.go
package services

import (
	"github.com/craftpress/shop-backend/internal/models"
)

// Capability names one permitted action on a resource. Handlers receive an
// explicit capability requirement instead of re-checking roles ad hoc.
type Capability string

const (
	CapCouponsEdit  Capability = "coupons:edit"
	CapQuotesEdit   Capability = "quotes:edit"
	CapQuotesView   Capability = "quotes:view"
	CapProductsEdit Capability = "products:edit"
)

var roleCapabilities = map[models.UserType][]Capability{
	models.UserTypeAdmin: {
		CapCouponsEdit,
		CapQuotesEdit,
		CapQuotesView,
		CapProductsEdit,
	},
	models.UserTypeBuyer: {},
}

type AuthorizationService struct{}

func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

// Can reports whether the role holds the capability.
func (s *AuthorizationService) Can(role models.UserType, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Capabilities returns the full set for a role, for surfacing to clients.
func (s *AuthorizationService) Capabilities(role models.UserType) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
