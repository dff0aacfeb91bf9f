// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	xerrors "singr-service/internal/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Reason says why a token failed verification. It is for logs and metrics
// only; callers must not show it to clients.
type Reason string

const (
	ReasonMalformed Reason = "malformed"
	ReasonSignature Reason = "signature"
	ReasonExpired   Reason = "expired"
	ReasonClaims    Reason = "claims"
	ReasonType      Reason = "type"
)

// VerifyError is returned for every rejected token. It matches
// xerrors.ErrInvalidToken under errors.Is.
type VerifyError struct {
	Reason Reason
	Err    error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid token (%s)", e.Reason)
	}
	return fmt.Sprintf("invalid token (%s): %v", e.Reason, e.Err)
}

func (e *VerifyError) Unwrap() []error {
	if e.Err == nil {
		return []error{xerrors.ErrInvalidToken}
	}
	return []error{xerrors.ErrInvalidToken, e.Err}
}

// ReasonOf extracts the failure reason from err, or "" if err is not a VerifyError.
func ReasonOf(err error) Reason {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

type Verifier struct {
	pub      *ecdsa.PublicKey
	issuer   string
	audience string
	now      func() time.Time
}

func NewVerifier(pub *ecdsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pub:      pub,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// Verify validates signature, algorithm, issuer, audience, expiry and type.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.pub == nil {
		return nil, fmt.Errorf("jwt verifier has nil public key")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.pub, nil
	})
	if err != nil {
		return nil, &VerifyError{Reason: classify(err), Err: err}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &VerifyError{Reason: ReasonClaims}
	}

	if !claims.Type.Valid() {
		return nil, &VerifyError{Reason: ReasonType, Err: fmt.Errorf("unknown token type %q", claims.Type)}
	}

	return claims, nil
}

// VerifyAccessToken verifies that the token is for access purposes
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	return v.verifyType(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken verifies that the token is for refresh purposes
func (v *Verifier) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return v.verifyType(tokenString, TokenTypeRefresh)
}

func (v *Verifier) verifyType(tokenString string, want TokenType) (*Claims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, &VerifyError{Reason: ReasonType, Err: fmt.Errorf("token is not an %s token", want)}
	}
	return claims, nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ReasonClaims
	default:
		return ReasonMalformed
	}
}
