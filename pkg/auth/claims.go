package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims accepted by loanbook. The token subject is the
// user that owns loans; it is the only identity the service ever sees.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// OwnerID returns the user id carried by the token.
func (c Claims) OwnerID() string { return c.Subject }

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Role constants
const (
	RoleAdmin = "admin"
	// RoleServicer may record external servicing decisions such as default.
	RoleServicer = "servicer"
	RoleCustomer = "customer"
)
