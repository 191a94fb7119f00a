// Package token mints and validates staff access tokens. Capability claims
// ride in the token so the permission check needs no store round trip on the
// hot path; the staff service remains the source of truth when capabilities
// are revoked mid-session.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

// Claims are the staff token claims.
type Claims struct {
	TenantID     string   `json:"tid"`
	Capabilities []string `json:"caps"`
	ActorType    string   `json:"act"`
	jwt.RegisteredClaims
}

// Manager signs and validates staff tokens with a shared HMAC key.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewManager(signingKey string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{signingKey: []byte(signingKey), ttl: ttl}
}

// Mint issues a signed token for a staff actor.
func (m *Manager) Mint(staffID id.StaffID, tenantID id.TenantID, actorType string, capabilities []string, now time.Time) (string, error) {
	claims := Claims{
		TenantID:     tenantID.String(),
		Capabilities: capabilities,
		ActorType:    actorType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "origen",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Validate parses and verifies a token string, returning its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.signingKey, nil
	}, jwt.WithIssuer("origen"))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}
