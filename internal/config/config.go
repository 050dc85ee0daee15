package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	StorageBackend string
	RunMigrations  bool

	// JWT (tokens are issued elsewhere; only verified here)
	JWTSecret string

	// Background Workers
	WorkerCount     int
	OutboxInterval  time.Duration
	OutboxBatchSize int
	AccrualInterval time.Duration
	AccrualGrace    int

	// Projection
	ProjectionMaxMonths int

	// CORS
	AllowedOrigins []string

	// AMQP (optional transport for ledger events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		StorageBackend:      getEnv("STORAGE_BACKEND", BackendPostgres),
		RunMigrations:       getEnvAsBool("RUN_MIGRATIONS", true),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 5),
		OutboxInterval:      getEnvAsDuration("OUTBOX_INTERVAL", 30*time.Second),
		OutboxBatchSize:     getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
		AccrualInterval:     getEnvAsDuration("ACCRUAL_INTERVAL", time.Hour),
		AccrualGrace:        getEnvAsInt("ACCRUAL_GRACE_DAYS", 5),
		ProjectionMaxMonths: getEnvAsInt("PROJECTION_MAX_MONTHS", 360),
		AllowedOrigins:      getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		AMQPURL:             getEnv("AMQP_URL", ""),
		AMQPExchange:        getEnv("AMQP_EXCHANGE", "debt_ledger"),
		AMQPQueue:           getEnv("AMQP_QUEUE", "expense_sync"),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of [%s %s]", c.StorageBackend, BackendPostgres, BackendMemory))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.WorkerCount < 1 {
		problems = append(problems, fmt.Sprintf("invalid worker count %d: must be at least 1", c.WorkerCount))
	}
	if c.OutboxInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid outbox interval %v: must be at least 1s", c.OutboxInterval))
	}
	if c.OutboxBatchSize < 1 || c.OutboxBatchSize > 1000 {
		problems = append(problems, fmt.Sprintf("invalid outbox batch size %d: must be between 1 and 1000", c.OutboxBatchSize))
	}
	if c.AccrualInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid accrual interval %v: must be at least 1m", c.AccrualInterval))
	}
	if c.AccrualGrace < 0 {
		problems = append(problems, fmt.Sprintf("invalid accrual grace %d: must not be negative", c.AccrualGrace))
	}
	if c.ProjectionMaxMonths < 1 || c.ProjectionMaxMonths > 1200 {
		problems = append(problems, fmt.Sprintf("invalid projection horizon %d: must be between 1 and 1200 months", c.ProjectionMaxMonths))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
