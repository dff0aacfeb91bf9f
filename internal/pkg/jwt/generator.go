// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

type Generator struct {
	priv       *ecdsa.PrivateKey
	issuer     string
	audience   string
	kid        string // key id for rotation
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewGenerator(priv *ecdsa.PrivateKey, issuer, audience, kid string, accessTTL, refreshTTL time.Duration) *Generator {
	return &Generator{
		priv:       priv,
		issuer:     issuer,
		audience:   audience,
		kid:        kid,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TTL returns the lifetime used for tokens of the given type.
func (g *Generator) TTL(kind TokenType) time.Duration {
	if kind == TokenTypeRefresh {
		return g.refreshTTL
	}
	return g.accessTTL
}

// Issue signs a token of the given type for identity.
func (g *Generator) Issue(kind TokenType, identity Identity) (string, error) {
	if g.priv == nil {
		return "", fmt.Errorf("jwt generator has nil private key")
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown token type %q", kind)
	}

	now := g.now()
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}

	claims := &Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Roles:  roles,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   identity.UserID,
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(g.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	return tok.SignedString(g.priv)
}

// IssueAccessToken issues a short-lived access token.
func (g *Generator) IssueAccessToken(identity Identity) (string, error) {
	return g.Issue(TokenTypeAccess, identity)
}

// IssueRefreshToken issues a long-lived refresh token.
func (g *Generator) IssueRefreshToken(identity Identity) (string, error) {
	return g.Issue(TokenTypeRefresh, identity)
}
