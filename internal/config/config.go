package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,80}$`)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	CORS        CORSConfig
	Logging     LoggingConfig
	Idempotency IdempotencyConfig
	Auth        AuthConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Backend string
	Path    string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// IdempotencyConfig controls how long idempotency keys are kept
type IdempotencyConfig struct {
	TTL           time.Duration
	PurgeSchedule string
}

// AuthConfig holds the user resolution settings
type AuthConfig struct {
	// DefaultUserID is used when a request carries no X-User-ID header.
	DefaultUserID string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "4000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Backend: strings.ToLower(getEnv("PERSISTENCE_BACKEND", BackendSQLite)),
			Path:    getEnv("DB_PATH", "./data/ledger.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Idempotency: IdempotencyConfig{
			PurgeSchedule: getEnv("IDEMPOTENCY_PURGE_SCHEDULE", "@every 1h"),
		},
		Auth: AuthConfig{
			DefaultUserID: getEnv("DEFAULT_USER_ID", "user-1"),
		},
	}

	ttl, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: must be positive, got %s", ttl)
	}
	config.Idempotency.TTL = ttl

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

func (c *Config) validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %q", c.Server.Port)
	}

	switch c.Database.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid PERSISTENCE_BACKEND %q: must be %s or %s", c.Database.Backend, BackendSQLite, BackendMemory)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.Logging.Level)
	}

	if !userIDPattern.MatchString(c.Auth.DefaultUserID) {
		return fmt.Errorf("invalid DEFAULT_USER_ID %q", c.Auth.DefaultUserID)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated value and drops empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
