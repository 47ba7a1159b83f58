package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionTokenService_IssueParse(t *testing.T) {
	svc := NewSessionTokenService("secret", time.Hour)

	token, expiresIn, err := svc.Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" || expiresIn != 3600 {
		t.Fatalf("unexpected token=%q expiresIn=%d", token, expiresIn)
	}

	sid, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "sess-1" {
		t.Fatalf("expected sess-1, got %q", sid)
	}
}

func TestSessionTokenService_RejectsOtherSecret(t *testing.T) {
	token, _, err := NewSessionTokenService("secret", time.Hour).Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewSessionTokenService("other", time.Hour).Parse(token); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("expected ErrSessionTokenInvalid, got %v", err)
	}
}

func TestSessionTokenService_Expired(t *testing.T) {
	svc := NewSessionTokenService("secret", time.Hour)
	past := time.Now().Add(-2 * time.Hour)
	claims := SessionClaims{
		SessionID: "sess-1",
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "blum",
			Subject:   "sess-1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(token); !errors.Is(err, ErrSessionTokenExpired) {
		t.Fatalf("expected ErrSessionTokenExpired, got %v", err)
	}
}

func TestSessionTokenService_WrongType(t *testing.T) {
	claims := SessionClaims{
		SessionID: "sess-1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "blum",
			Subject:   "sess-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if _, err := NewSessionTokenService("secret", time.Hour).Parse(token); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("expected ErrSessionTokenInvalid, got %v", err)
	}
}

func TestSessionTokenService_NoSecret(t *testing.T) {
	svc := NewSessionTokenService("", time.Hour)
	if _, _, err := svc.Issue("sess-1"); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("expected ErrSessionTokenInvalid, got %v", err)
	}
}
