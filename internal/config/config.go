package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort               string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTIssuer              string
	JWTAudience            string
	LogLevel               string
	LockTimeout            time.Duration
	LockRetryBackoff       time.Duration
	SinkBackend            string
	SinkMode               string
	SinkBuffer             int
	SinkStream             string
	SinkStreamMaxLen       int64
	DirectoryBackend       string
	ReconciliationInterval time.Duration
	PublicRateLimitRPS     int
	AuthRateLimitRPS       int
	IdempotencyTTL         time.Duration
	AuditCapacity          int
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "WALLET_PORT")
	bindEnv(v, "database_url", "DATABASE_URL", "WALLET_DATABASE_URL")
	bindEnv(v, "redis_url", "REDIS_URL", "WALLET_REDIS_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "WALLET_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "WALLET_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "WALLET_JWT_AUDIENCE")
	bindEnv(v, "log_level", "LOG_LEVEL", "WALLET_LOG_LEVEL")
	bindEnv(v, "lock_timeout", "LOCK_TIMEOUT", "WALLET_LOCK_TIMEOUT")
	bindEnv(v, "lock_retry_backoff", "LOCK_RETRY_BACKOFF", "WALLET_LOCK_RETRY_BACKOFF")
	bindEnv(v, "sink_backend", "SINK_BACKEND", "WALLET_SINK_BACKEND")
	bindEnv(v, "sink_mode", "SINK_MODE", "WALLET_SINK_MODE")
	bindEnv(v, "sink_buffer", "SINK_BUFFER", "WALLET_SINK_BUFFER")
	bindEnv(v, "sink_stream", "SINK_STREAM", "WALLET_SINK_STREAM")
	bindEnv(v, "sink_stream_maxlen", "SINK_STREAM_MAXLEN", "WALLET_SINK_STREAM_MAXLEN")
	bindEnv(v, "directory_backend", "DIRECTORY_BACKEND", "WALLET_DIRECTORY_BACKEND")
	bindEnv(v, "reconciliation_interval", "RECONCILIATION_INTERVAL", "WALLET_RECONCILIATION_INTERVAL")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "WALLET_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "auth_rate_limit_rps", "AUTH_RATE_LIMIT_RPS", "WALLET_AUTH_RATE_LIMIT_RPS")
	bindEnv(v, "idempotency_ttl", "IDEMPOTENCY_TTL", "WALLET_IDEMPOTENCY_TTL")
	bindEnv(v, "audit_capacity", "AUDIT_CAPACITY", "WALLET_AUDIT_CAPACITY")

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "wallet-ledger")
	v.SetDefault("jwt_audience", "wallet-api")
	v.SetDefault("log_level", "info")
	v.SetDefault("lock_timeout", "2s")
	v.SetDefault("lock_retry_backoff", "50ms")
	v.SetDefault("sink_backend", domain.SinkBackendNone)
	v.SetDefault("sink_mode", domain.SinkModeAsync)
	v.SetDefault("sink_buffer", 1024)
	v.SetDefault("sink_stream", "ledger:transactions")
	v.SetDefault("sink_stream_maxlen", 0)
	v.SetDefault("directory_backend", domain.DirectoryBackendMemory)
	v.SetDefault("reconciliation_interval", "1m")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("auth_rate_limit_rps", 100)
	v.SetDefault("idempotency_ttl", "24h")
	v.SetDefault("audit_capacity", 1000)

	lockTimeout, err := time.ParseDuration(v.GetString("lock_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TIMEOUT: %w", err)
	}
	retryBackoff, err := time.ParseDuration(v.GetString("lock_retry_backoff"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_RETRY_BACKOFF: %w", err)
	}
	ttl, err := time.ParseDuration(v.GetString("idempotency_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}
	reconciliationInterval, err := time.ParseDuration(v.GetString("reconciliation_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL: %w", err)
	}

	cfg := &Config{
		HTTPPort:               v.GetString("port"),
		DatabaseURL:            strings.TrimSpace(v.GetString("database_url")),
		RedisURL:               strings.TrimSpace(v.GetString("redis_url")),
		JWTSecret:              v.GetString("jwt_secret"),
		JWTIssuer:              v.GetString("jwt_issuer"),
		JWTAudience:            v.GetString("jwt_audience"),
		LogLevel:               v.GetString("log_level"),
		LockTimeout:            lockTimeout,
		LockRetryBackoff:       retryBackoff,
		SinkBackend:            strings.ToLower(strings.TrimSpace(v.GetString("sink_backend"))),
		SinkMode:               strings.ToLower(strings.TrimSpace(v.GetString("sink_mode"))),
		SinkBuffer:             max(v.GetInt("sink_buffer"), 1),
		SinkStream:             v.GetString("sink_stream"),
		SinkStreamMaxLen:       v.GetInt64("sink_stream_maxlen"),
		DirectoryBackend:       strings.ToLower(strings.TrimSpace(v.GetString("directory_backend"))),
		ReconciliationInterval: reconciliationInterval,
		PublicRateLimitRPS:     max(v.GetInt("public_rate_limit_rps"), 1),
		AuthRateLimitRPS:       max(v.GetInt("auth_rate_limit_rps"), 1),
		IdempotencyTTL:         ttl,
		AuditCapacity:          max(v.GetInt("audit_capacity"), 1),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(c.JWTIssuer) == "" {
		return fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(c.JWTAudience) == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	if c.LockRetryBackoff < 0 {
		return fmt.Errorf("LOCK_RETRY_BACKOFF must not be negative")
	}
	if c.ReconciliationInterval <= 0 {
		return fmt.Errorf("RECONCILIATION_INTERVAL must be positive")
	}

	switch c.SinkBackend {
	case domain.SinkBackendNone:
	case domain.SinkBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SINK_BACKEND=redis")
		}
	case domain.SinkBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SINK_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported SINK_BACKEND %q", c.SinkBackend)
	}
	if c.SinkMode != domain.SinkModeAsync && c.SinkMode != domain.SinkModeSync {
		return fmt.Errorf("unsupported SINK_MODE %q", c.SinkMode)
	}
	if c.SinkStreamMaxLen < 0 {
		return fmt.Errorf("SINK_STREAM_MAXLEN must not be negative")
	}

	switch c.DirectoryBackend {
	case domain.DirectoryBackendMemory:
	case domain.DirectoryBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DIRECTORY_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported DIRECTORY_BACKEND %q", c.DirectoryBackend)
	}
	return nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
