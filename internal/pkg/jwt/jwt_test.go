package jwt

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	xerrors "singr-service/internal/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "system.singrkaraoke.com"
	testAudience = "system.singrkaraoke.com"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	m, err := LoadAndBuild(Config{
		PrivateKey: string(privPEM),
		PublicKey:  string(pubPEM),
		Issuer:     testIssuer,
		Audience:   testAudience,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, m.Generator)
	return m
}

func testIdentity() Identity {
	return Identity{UserID: "u1", Email: "singer@example.com", Roles: []string{"singer"}}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	for _, kind := range []TokenType{TokenTypeAccess, TokenTypeRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			token, err := m.Generator.Issue(kind, testIdentity())
			require.NoError(t, err)

			claims, err := m.Verifier.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
			assert.Equal(t, "singer@example.com", claims.Email)
			assert.Equal(t, []string{"singer"}, claims.Roles)
			assert.Equal(t, kind, claims.Type)
			assert.Equal(t, testIssuer, claims.Issuer)
			assert.True(t, claims.VerifyAudience(testAudience))
		})
	}
}

func TestIssue_TTLPerKind(t *testing.T) {
	m := newTestManager(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Generator.now = func() time.Time { return fixed }
	m.Verifier.now = func() time.Time { return fixed.Add(time.Minute) }

	access, err := m.Generator.IssueAccessToken(testIdentity())
	require.NoError(t, err)
	refresh, err := m.Generator.IssueRefreshToken(testIdentity())
	require.NoError(t, err)

	ac, err := m.Verifier.Verify(access)
	require.NoError(t, err)
	rc, err := m.Verifier.Verify(refresh)
	require.NoError(t, err)

	assert.Equal(t, fixed.Add(15*time.Minute).Unix(), ac.ExpiresAt.Unix())
	assert.Equal(t, fixed.Add(7*24*time.Hour).Unix(), rc.ExpiresAt.Unix())
	assert.Equal(t, fixed.Unix(), ac.IssuedAt.Unix())
}

func TestVerify_RejectsOtherSigningKey(t *testing.T) {
	m := newTestManager(t)
	other := newTestManager(t)

	token, err := other.Generator.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonSignature, ReasonOf(err))
}

func TestVerify_RejectsExpired(t *testing.T) {
	m := newTestManager(t)
	m.Generator.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Generator.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonExpired, ReasonOf(err))
}

func TestVerify_RejectsIssuerAndAudienceMismatch(t *testing.T) {
	m := newTestManager(t)

	wrongIssuer := *m.Generator
	wrongIssuer.issuer = "evil.example.com"
	token, err := wrongIssuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)
	_, err = m.Verifier.Verify(token)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonClaims, ReasonOf(err))

	wrongAudience := *m.Generator
	wrongAudience.audience = "other-service"
	token, err = wrongAudience.IssueAccessToken(testIdentity())
	require.NoError(t, err)
	_, err = m.Verifier.Verify(token)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonClaims, ReasonOf(err))
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Generator.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"singer"`, `"admin"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = m.Verifier.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonSignature, ReasonOf(err))
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	m := newTestManager(t)

	claims := &Claims{
		UserID: "u1",
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  []string{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Verifier.Verify("not-a-token")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonMalformed, ReasonOf(err))
}

func TestVerifyAccessToken_RejectsRefresh(t *testing.T) {
	m := newTestManager(t)

	refresh, err := m.Generator.IssueRefreshToken(testIdentity())
	require.NoError(t, err)

	_, err = m.Verifier.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
	assert.Equal(t, ReasonType, ReasonOf(err))

	claims, err := m.Verifier.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestInspector_DecodesWithoutVerifying(t *testing.T) {
	m := newTestManager(t)
	other := newTestManager(t)

	token, err := other.Generator.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	require.Error(t, err)

	claims, err := m.Inspector.DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	_, err = m.Inspector.DecodeUnverified("garbage")
	assert.Error(t, err)
}

func TestLoadAndBuild_KeyFilesAndVerifyOnly(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	dir := t.TempDir()
	pubPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o600))

	m, err := LoadAndBuild(Config{PublicKey: pubPath, Issuer: testIssuer, Audience: testAudience})
	require.NoError(t, err)
	assert.Nil(t, m.Generator)
	assert.NotNil(t, m.Verifier)

	escaped := strings.ReplaceAll(string(privPEM), "\n", `\n`)
	_, err = LoadECPrivateKey(escaped)
	assert.NoError(t, err)
}

func TestLoadAndBuild_RejectsMismatchedPair(t *testing.T) {
	privPEM, _, err := GenerateKeyPair()
	require.NoError(t, err)
	_, otherPub, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = LoadAndBuild(Config{PrivateKey: string(privPEM), PublicKey: string(otherPub)})
	assert.Error(t, err)
}
