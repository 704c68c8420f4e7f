// Package app loads process configuration and wires a storage backend into
// the ledger services shared by the server, worker and seed binaries.
package app

import (
	"fmt"
	"time"

	"pharmaledger/pkg/logger"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	devJWTSecret = "pharmaledger-dev-secret-change-me"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StorageBackend string
	DatabaseURL    string
	DBMaxConns     int

	JWTSecret string
	JWTIssuer string

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
	CORSAllowedOrigins []string
	DefaultPhoneRegion string

	RedisAddress       string
	PubSubProjectID    string
	PubSubTopic        string
	OutboxPollInterval time.Duration
	AlertSweepInterval time.Duration

	// LowStockThreshold overrides every product threshold when positive.
	LowStockThreshold int64
}

// Development reports whether APP_ENV is development.
func (c Config) Development() bool {
	return c.Env == "development"
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:               getEnv("APP_PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StorageBackend:     getEnv("STORAGE_BACKEND", BackendPostgres),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 20),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "pharmaledger"),
		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", true),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IN"),
		RedisAddress:       getEnv("REDIS_ADDRESS", ""),
		PubSubProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
		PubSubTopic:        getEnv("PUBSUB_TOPIC", "pharmaledger-events"),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
		AlertSweepInterval: getEnvDuration("ALERT_SWEEP_INTERVAL", time.Hour),
		LowStockThreshold:  int64(getEnvInt("LOW_STOCK_THRESHOLD", 0)),
	}

	switch cfg.StorageBackend {
	case BackendPostgres:
		url, err := mustEnv("DATABASE_URL")
		if err != nil {
			return Config{}, err
		}
		cfg.DatabaseURL = url
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, cfg.StorageBackend)
	}

	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return Config{}, fmt.Errorf("required environment variable JWT_SECRET not set")
		}
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// NewLogger builds the process logger from the configuration.
func NewLogger(cfg Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
}
