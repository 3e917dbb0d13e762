// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"writerslibrary/internal/models"
)

const (
	// tokenIssuer identifies tokens minted by this application.
	tokenIssuer = "writerslibrary"

	// DefaultTokenTTL is how long a caller token stays valid.
	DefaultTokenTTL = 5 * time.Minute
)

// Signer mints short-lived HS256 tokens that carry the caller principal
// in the subject claim.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer for the shared backend secret.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a signed token for the principal.
func (s *Signer) Sign(p models.Principal) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("backend secret not configured")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   string(p),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	return token.SignedString(s.secret)
}

// Verify parses a token minted by Sign and returns its principal.
func (s *Signer) Verify(tokenString string) (models.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("verify token: %w", jwt.ErrTokenInvalidClaims)
	}
	return models.Principal(claims.Subject), nil
}
