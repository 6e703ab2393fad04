package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Logging Configuration
	Logging LoggingConfig

	// Auth Configuration
	Auth AuthConfig

	// Activity log retention
	Activity ActivityConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// HTTPConfig holds listener and CORS configuration
type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// AuthConfig holds token configuration
type AuthConfig struct {
	// JWTSecret overrides the secret persisted in the database when set
	JWTSecret         string
	AccessTokenExpire time.Duration
}

// ActivityConfig controls pruning of the user activity log
type ActivityConfig struct {
	RetentionDays int
	Schedule      string // cron expression, empty disables pruning
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	expireMinutes, err := intEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if expireMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", expireMinutes)
	}

	retentionDays, err := intEnv("ACTIVITY_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}

	schedule, ok := os.LookupEnv("ACTIVITY_RETENTION_SCHEDULE")
	if !ok {
		schedule = "@daily"
	}

	return &Config{
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "taskdesk.sqlite"),
		},
		HTTP: HTTPConfig{
			Addr:        stringEnv("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(stringEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8001")),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AccessTokenExpire: time.Duration(expireMinutes) * time.Minute,
		},
		Activity: ActivityConfig{
			RetentionDays: retentionDays,
			Schedule:      strings.TrimSpace(schedule),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
