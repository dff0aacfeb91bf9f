// Package config loads the service configuration from an optional YAML
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnvVar names the variable holding an optional YAML config path.
const FileEnvVar = "CONFIG_FILE"

type AppConfig struct {
	// Application
	Env      string `koanf:"node_env" validate:"oneof=development test production"`
	Port     int    `koanf:"port" validate:"gte=1,lte=65535"`
	LogLevel string `koanf:"log_level" validate:"oneof=fatal error warn info debug trace"`

	// Storage
	DatabaseURL   string `koanf:"database_url" validate:"required,url"`
	RedisURL      string `koanf:"redis_url" validate:"required,url"`
	DBAutoMigrate bool   `koanf:"db_auto_migrate"`

	// JWT, keys are PEM contents or file paths
	JWTPrivateKey string `koanf:"jwt_private_key"`
	JWTPublicKey  string `koanf:"jwt_public_key" validate:"required"`
	JWTKeyID      string `koanf:"jwt_key_id"`
	JWTIssuer     string `koanf:"jwt_issuer" validate:"required"`
	JWTAudience   string `koanf:"jwt_audience" validate:"required"`
	JWTAccessTTL  int    `koanf:"jwt_access_ttl" validate:"gt=0"`
	JWTRefreshTTL int    `koanf:"jwt_refresh_ttl" validate:"gtfield=JWTAccessTTL"`

	// Observability
	SentryDSN            string `koanf:"sentry_dsn" validate:"omitempty,url"`
	EnableRequestLogging bool   `koanf:"enable_request_logging"`

	CORSOrigins string `koanf:"cors_origins"`
}

// Defaults returns the configuration used before any source is applied.
func Defaults() AppConfig {
	return AppConfig{
		Env:                  "development",
		Port:                 3000,
		LogLevel:             "info",
		DBAutoMigrate:        true,
		JWTKeyID:             "singr-es256",
		JWTIssuer:            "system.singrkaraoke.com",
		JWTAudience:          "system.singrkaraoke.com",
		JWTAccessTTL:         900,
		JWTRefreshTTL:        604800,
		EnableRequestLogging: true,
		CORSOrigins:          "http://localhost:3000,http://localhost:3001,http://localhost:3002",
	}
}

// Load reads CONFIG_FILE (when set) and then the environment over the
// defaults, and validates the result.
func Load() (*AppConfig, error) {
	return LoadFile(os.Getenv(FileEnvVar))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// DATABASE_URL -> database_url
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// APP_ENV is accepted when NODE_ENV is absent
	if !k.Exists("node_env") && k.Exists("app_env") {
		if err := k.Set("node_env", k.String("app_env")); err != nil {
			return nil, fmt.Errorf("alias app_env: %w", err)
		}
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every violated constraint at once.
func (c *AppConfig) Validate() error {
	err := validation.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, d := range validation.Details(err) {
		msgs = append(msgs, fmt.Sprintf("%s %s", strings.ToUpper(d.Field), d.Message))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func (c *AppConfig) IsProduction() bool  { return c.Env == "production" }
func (c *AppConfig) IsDevelopment() bool { return c.Env == "development" }

// Addr is the HTTP listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Origins splits CORS_ORIGINS on commas.
func (c *AppConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// JWT converts the token settings into the jwt package's config.
func (c *AppConfig) JWT() jwt.Config {
	return jwt.Config{
		PrivateKey: c.JWTPrivateKey,
		PublicKey:  c.JWTPublicKey,
		Issuer:     c.JWTIssuer,
		Audience:   c.JWTAudience,
		AccessTTL:  time.Duration(c.JWTAccessTTL) * time.Second,
		RefreshTTL: time.Duration(c.JWTRefreshTTL) * time.Second,
		KID:        c.JWTKeyID,
	}
}
