package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func hmacToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier("s3cret")
	exp := time.Now().Add(time.Hour).Unix()

	p, err := v.Verify(context.Background(), hmacToken(t, "s3cret", jwt.MapClaims{"sub": "u1", "email": "a@x.com", "exp": exp}))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Email != "a@x.com" {
		t.Errorf("Email = %q", p.Email)
	}

	if _, err := v.Verify(context.Background(), hmacToken(t, "other", jwt.MapClaims{"email": "a@x.com", "exp": exp})); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: error = %v", err)
	}
	if _, err := v.Verify(context.Background(), hmacToken(t, "s3cret", jwt.MapClaims{"email": "a@x.com"})); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing exp: error = %v", err)
	}
	if _, err := v.Verify(context.Background(), hmacToken(t, "s3cret", jwt.MapClaims{"exp": exp})); !errors.Is(err, ErrNoEmail) {
		t.Errorf("missing email: error = %v", err)
	}
}
