package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector decodes tokens WITHOUT checking their signature or claims.
// Output is for diagnostics and logging only and must never drive
// an authorization decision; use Verifier for that.
type Inspector struct {
	parser *jwt.Parser
}

func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

// DecodeUnverified returns the payload of tokenString as-is.
func (i *Inspector) DecodeUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
