// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// TokenServiceURL is the base URL of the token service that exchanges federated ID tokens for custom tokens.
	TokenServiceURL string `mapstructure:"TOKEN_SERVICE_URL"`
	// DatabaseURL is the Postgres DSN for the account directory; empty uses the in-memory directory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RedisAddr is the host:port of the credential store; empty uses the in-memory store.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis AUTH password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database index.
	RedisDB int `mapstructure:"REDIS_DB"`
	// CredentialKeyPrefix prefixes every credential store key (e.g. "credentials:").
	CredentialKeyPrefix string `mapstructure:"CREDENTIAL_KEY_PREFIX"`
	// CredentialSealKey is the fernet key (base64) used to seal stored passwords; required when Redis is enabled.
	CredentialSealKey string `mapstructure:"CREDENTIAL_SEAL_KEY"`
	// CredentialProvider names the credential manager; saves are skipped when it would duplicate another saver.
	CredentialProvider string `mapstructure:"CREDENTIAL_PROVIDER"`

	// CustomTokenPublicKey is the PEM-encoded public key or path used to verify custom sign-in tokens.
	CustomTokenPublicKey string `mapstructure:"CUSTOM_TOKEN_PUBLIC_KEY"`
	// CustomTokenPrivateKey is the PEM-encoded private key or path; only the seed/dev token service needs it.
	CustomTokenPrivateKey string `mapstructure:"CUSTOM_TOKEN_PRIVATE_KEY"`
	// CustomTokenIssuer is the iss claim expected on custom tokens.
	CustomTokenIssuer string `mapstructure:"CUSTOM_TOKEN_ISSUER"`
	// CustomTokenAudience is the aud claim expected on custom tokens.
	CustomTokenAudience string `mapstructure:"CUSTOM_TOKEN_AUDIENCE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// WorkerIdleTimeout is how long an idle login worker waits before exiting (e.g. "60s").
	WorkerIdleTimeout string `mapstructure:"WORKER_IDLE_TIMEOUT"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. "localhost:4317"); empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("TOKEN_SERVICE_URL", "https://us-central1-expensive-167322.cloudfunctions.net")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CREDENTIAL_KEY_PREFIX", "credentials:")
	v.SetDefault("CREDENTIAL_SEAL_KEY", "")
	v.SetDefault("CREDENTIAL_PROVIDER", "credential-orchestrator")
	v.SetDefault("CUSTOM_TOKEN_PUBLIC_KEY", "")
	v.SetDefault("CUSTOM_TOKEN_PRIVATE_KEY", "")
	v.SetDefault("CUSTOM_TOKEN_ISSUER", "credential-backend")
	v.SetDefault("CUSTOM_TOKEN_AUDIENCE", "credential-orchestrator")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("WORKER_IDLE_TIMEOUT", "60s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.TokenServiceURL = strings.TrimRight(strings.TrimSpace(cfg.TokenServiceURL), "/")
	if cfg.TokenServiceURL == "" {
		return nil, errors.New("config: TOKEN_SERVICE_URL must be set")
	}

	if cfg.RedisEnabled() && cfg.CredentialSealKey == "" {
		return nil, errors.New("config: CREDENTIAL_SEAL_KEY must be set when REDIS_ADDR is set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// WorkerIdleTimeoutDuration parses WorkerIdleTimeout. Returns 60s if unset or invalid.
func (c *Config) WorkerIdleTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.WorkerIdleTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// RedisEnabled reports whether credentials are kept in Redis rather than in memory.
func (c *Config) RedisEnabled() bool {
	return c != nil && strings.TrimSpace(c.RedisAddr) != ""
}
