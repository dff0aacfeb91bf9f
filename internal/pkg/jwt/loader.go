// internal/pkg/jwt/loader.go
package jwt

import (
	"fmt"
	"time"
)

// Config holds key material (inline PEM or file path) and token settings.
type Config struct {
	PrivateKey string
	PublicKey  string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	KID        string
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
	Inspector *Inspector
}

// LoadAndBuild loads keys and builds the manager. Without a private key
// the manager can verify but not issue.
func LoadAndBuild(cfg Config) (*Manager, error) {
	pub, err := LoadECPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	m := &Manager{
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
		Inspector: NewInspector(),
	}

	if cfg.PrivateKey == "" {
		return m, nil
	}

	priv, err := LoadECPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("private key does not match public key")
	}

	m.Generator = NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.AccessTTL, cfg.RefreshTTL)
	return m, nil
}
