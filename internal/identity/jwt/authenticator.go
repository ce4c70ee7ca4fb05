// Package jwt issues and validates the signed identity tokens used on
// every protected request.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/pkg/httputil"
)

// ErrInvalidToken is returned for tokens that fail signature, structure
// or expiry checks. Callers must treat it as unauthenticated.
var ErrInvalidToken = errors.New("invalid or expired token")

// Config holds token signing settings.
type Config struct {
	SecretKey           string
	AccessTokenDuration time.Duration
}

// Claims are the identity claims carried by an access token.
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator mints and validates HMAC-signed access tokens.
// Tokens are stateless: once issued they stay valid until expiry.
type Authenticator struct {
	secret   []byte
	duration time.Duration
}

// NewAuthenticator creates an authenticator from config.
func NewAuthenticator(cfg Config) *Authenticator {
	duration := cfg.AccessTokenDuration
	if duration <= 0 {
		duration = 60 * time.Minute
	}
	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		duration: duration,
	}
}

// Issue creates a signed access token for the user.
func (a *Authenticator) Issue(_ context.Context, user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the identity
// encoded in the token. Implements httputil.TokenValidator.
func (a *Authenticator) ValidateToken(_ context.Context, tokenString string) (httputil.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return httputil.Identity{}, ErrInvalidToken
	}

	return httputil.Identity{
		ID:    claims.Subject,
		Role:  claims.Role,
		Email: claims.Email,
	}, nil
}
