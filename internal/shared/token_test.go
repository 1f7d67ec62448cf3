package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "user-1"}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("TokenExpiry", func(t *testing.T) {
		exp := now.Add(time.Hour)
		got, ok := TokenExpiry("Bearer " + signedToken(t, &exp))
		if !ok {
			t.Fatal("expected exp claim to be found")
		}
		if !got.Equal(exp) {
			t.Errorf("expected %v, got %v", exp, got)
		}
	})

	t.Run("TokenExpiry Opaque Token", func(t *testing.T) {
		if _, ok := TokenExpiry("not-a-jwt"); ok {
			t.Error("expected opaque token to have no expiry")
		}
	})

	t.Run("TokenExpiry Without Exp", func(t *testing.T) {
		if _, ok := TokenExpiry(signedToken(t, nil)); ok {
			t.Error("expected token without exp to have no expiry")
		}
	})

	t.Run("CheckToken", func(t *testing.T) {
		past := now.Add(-time.Minute)
		future := now.Add(time.Minute)

		if err := CheckToken("", now); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
		if err := CheckToken(signedToken(t, &past), now); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if err := CheckToken(signedToken(t, &future), now); err != nil {
			t.Errorf("expected valid token, got %v", err)
		}
		if err := CheckToken("opaque", now); err != nil {
			t.Errorf("expected opaque token to pass, got %v", err)
		}
	})
}
