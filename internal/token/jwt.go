package token

import (
	"errors"
	"fmt"
	"time"

	"identity-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager signs and verifies bearer tokens with a symmetric HMAC-SHA256 key.
// Issuance is stateless: no record of issued tokens is kept, so the only
// expiry mechanism is the embedded timestamp.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if len(cfg.SigningSecret) < config.MinSigningSecretBytes {
		return nil, ErrWeakSigningKey
	}

	return &Manager{
		secret:   []byte(cfg.SigningSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TokenTTL,
	}, nil
}

/* ===================== ISSUE ===================== */

// Issue signs a token carrying the username and role claims.
// Pure in-memory: the only non-determinism is now and the jti.
func (m *Manager) Issue(now time.Time, username string, roles []string) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Name:  username,
		Roles: append([]string(nil), roles...),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

/* ===================== VERIFY ===================== */

// Verify validates a presented token and reconstructs its claim set.
// Checks run in a fixed order: signature first (claims are never inspected
// on a bad signature), then expiry, then issuer and audience.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSignature
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	// No leeway: a token is expired the instant now reaches exp.
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return Claims{}, ErrTokenExpired
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return Claims{}, ErrInvalidIssuer
	}
	if m.audience != "" && !containsAudience(claims.Audience, m.audience) {
		return Claims{}, ErrInvalidAudience
	}

	return claims, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func containsAudience(auds jwt.ClaimStrings, want string) bool {
	for _, a := range auds {
		if a == want {
			return true
		}
	}
	return false
}
