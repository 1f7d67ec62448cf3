package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim from a bearer token without verifying its signature.
//
// The backend owns verification; the client only uses the claim to fail fast before a request.
// ok is false when the token is not a JWT or carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CheckToken returns [ErrMissingToken] for an empty token and [ErrTokenExpired] when its exp claim is before now.
func CheckToken(token string, now time.Time) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}
	if exp, ok := TokenExpiry(token); ok && !exp.After(now) {
		return fmt.Errorf("%w: expired at %s", ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}
