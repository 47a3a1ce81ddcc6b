// Package auth implements token-based registration for the chat server.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. Username must match the nick the client
// registers with.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenPolicy authorizes registrations whose PASS argument is a valid HS256
// token issued for the presented nick.
type TokenPolicy struct {
	secret []byte
}

func NewTokenPolicy(secret string) *TokenPolicy {
	return &TokenPolicy{secret: []byte(secret)}
}

// Authorize implements the registration policy. The username is the nick,
// the password is the raw token.
func (p *TokenPolicy) Authorize(username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	claims, err := p.Verify(password)
	if err != nil {
		return false
	}
	return claims.Username == username
}

// Verify parses and validates a token, rejecting any signing method other
// than HMAC.
func (p *TokenPolicy) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Generate issues a token for username, valid for ttl. Used by the token
// issuing tooling and by tests.
func (p *TokenPolicy) Generate(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
