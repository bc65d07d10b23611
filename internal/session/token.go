package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenLive reports whether a stored bearer token is still usable going by
// its own expiry claim. The signature is NOT verified here; the backend is
// the authority and will reject a forged token on first use. This check only
// decides whether an eager restore is worth attempting.
func tokenLive(token string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.After(time.Now())
}
