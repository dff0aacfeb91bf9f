// Package jwttest builds throwaway token managers for tests.
package jwttest

import (
	"testing"
	"time"

	"singr-service/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

const (
	Issuer   = "system.singrkaraoke.com"
	Audience = "system.singrkaraoke.com"
)

// NewManager returns a manager backed by a fresh P-256 key pair.
func NewManager(t testing.TB) *jwt.Manager {
	t.Helper()

	privPEM, pubPEM, err := jwt.GenerateKeyPair()
	require.NoError(t, err)

	m, err := jwt.LoadAndBuild(jwt.Config{
		PrivateKey: string(privPEM),
		PublicKey:  string(pubPEM),
		Issuer:     Issuer,
		Audience:   Audience,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		KID:        "test",
	})
	require.NoError(t, err)
	return m
}
