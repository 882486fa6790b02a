// Package auth issues and verifies the bearer tokens shared by all services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken reports a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenPayload is the claim set carried by access and refresh tokens.
type TokenPayload struct {
	Email      string `json:"email"`
	RoleOrType string `json:"role_or_type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager builds a token manager. algorithm must be an HMAC variant
// (HS256/HS384/HS512); anything else is a configuration error.
func NewManager(secret, algorithm string, accessTTLMinutes, refreshTTLMinutes int) (*Manager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("auth: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: algorithm %q is not symmetric", algorithm)
	}
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Manager{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshTTLMinutes) * time.Minute,
	}, nil
}

func (m *Manager) create(sub, roleOrType, email string, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &TokenPayload{
		Email:      email,
		RoleOrType: roleOrType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// CreateAccessToken mints an access token expiring accessTTL from now.
func (m *Manager) CreateAccessToken(sub, roleOrType, email string) (string, error) {
	return m.create(sub, roleOrType, email, m.accessTTL)
}

// CreateRefreshToken mints a refresh token expiring refreshTTL from now.
func (m *Manager) CreateRefreshToken(sub, roleOrType, email string) (string, error) {
	return m.create(sub, roleOrType, email, m.refreshTTL)
}

// DecodeToken verifies the signature and claims of a token. Expiry is
// enforced once, by the parser's registered-claims validation; an expired
// token yields ErrTokenExpired, any other failure ErrInvalidToken.
func (m *Manager) DecodeToken(tokenStr string) (*TokenPayload, error) {
	claims := &TokenPayload{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
