package token

import "github.com/golang-jwt/jwt/v5"

// Claims is the only claim shape this gateway issues.
// The claim set is fixed at issuance; changing it means minting a new token.
// The jti (RegisteredClaims.ID) is fresh per issued token so two tokens for
// the same user in the same instant remain distinguishable.
type Claims struct {
	jwt.RegisteredClaims

	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the claim set carries the given role claim.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
