package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSessionTokenInvalid = errors.New("session token invalid")
	ErrSessionTokenExpired = errors.New("session token expired")
)

const sessionTokenType = "wizard"

// SessionTokenService firma tokens que atan un cliente a su sesión del wizard.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewSessionTokenService(secret string, ttl time.Duration) *SessionTokenService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "blum",
	}
}

// Issue firma un token para la sesión. Devuelve también los segundos de validez.
func (s *SessionTokenService) Issue(sessionID string) (string, int64, error) {
	if len(s.secret) == 0 || strings.TrimSpace(sessionID) == "" {
		return "", 0, ErrSessionTokenInvalid
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		SessionID: sessionID,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.ttl.Seconds()), nil
}

// Parse valida el token y devuelve el id de sesión.
func (s *SessionTokenService) Parse(tokenString string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return "", ErrSessionTokenInvalid
	}
	var claims SessionClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionTokenExpired
		}
		return "", ErrSessionTokenInvalid
	}
	if claims.TokenType != sessionTokenType {
		return "", ErrSessionTokenInvalid
	}
	if strings.TrimSpace(claims.SessionID) == "" || claims.Subject != claims.SessionID {
		return "", ErrSessionTokenInvalid
	}
	if claims.Issuer != s.issuer {
		return "", ErrSessionTokenInvalid
	}
	return claims.SessionID, nil
}
