package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines the registered claims with the principal binding.
// Subject carries the wallet address, ID the token's JTI.
type SessionClaims struct {
	jwt.RegisteredClaims
	PrincipalID string `json:"pid"`
}
