package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager() unexpected error: %v", err)
	}

	token, err := m.Issue("ops-console", "operator")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if claims.Subject != "ops-console" || claims.Role != "operator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Minute)
	other, _ := NewTokenManager("other", time.Minute)
	expired, _ := NewTokenManager("secret", -time.Minute)

	foreign, _ := other.Issue("x", "")
	stale, _ := expired.Issue("x", "")
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSubject, _ := m.Issue("", "")

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "other secret", token: foreign},
		{name: "expired", token: stale},
		{name: "alg none", token: none},
		{name: "no subject", token: noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Minute); err == nil {
		t.Error("NewTokenManager(\"\") expected error")
	}
}

func TestSubjectContext(t *testing.T) {
	if _, ok := SubjectFromContext(context.Background()); ok {
		t.Error("SubjectFromContext() on empty context reported a subject")
	}
	subject, ok := SubjectFromContext(WithSubject(context.Background(), "ops"))
	if !ok || subject != "ops" {
		t.Errorf("SubjectFromContext() = %q, %v", subject, ok)
	}
}
