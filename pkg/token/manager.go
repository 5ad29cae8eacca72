// Package token verifies the access tokens issued by the auth service and
// turns them into an actor.Actor.
package token

import (
	stderrors "errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/medflow/pos-allocation/pkg/errors"
)

// Claims represents the access token claims
type Claims struct {
	jwt.RegisteredClaims
	UserID      int64    `json:"uid"`
	CompanyID   int64    `json:"company_id"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
}

// Actor converts the claims into the acting user
func (c *Claims) Actor() *actor.Actor {
	return &actor.Actor{
		ID:          c.UserID,
		ScopeID:     c.CompanyID,
		Email:       c.Email,
		Permissions: c.Permissions,
	}
}

// Manager handles access token verification
type Manager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewManager creates a new token manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg, now: time.Now}
}

// Issue signs an access token for the given actor. The auth service is the
// issuer in production; this is used by tests and local tooling.
func (m *Manager) Issue(a *actor.Actor) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(a.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:      a.ID,
		CompanyID:   a.ScopeID,
		Email:       a.Email,
		Permissions: a.Permissions,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
}

// Validate validates an access token and returns the claims
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.config.Secret), nil
	}, opts...)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}
