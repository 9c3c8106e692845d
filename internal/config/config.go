// Package config loads the dues CLI configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/xraph/dues/internal/logger"
)

// Store backends accepted in DUES_STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	// Storage
	Store    string // memory, sqlite, postgres, mongo
	StoreDSN string // for mongo the database is taken from the URI path

	// Society identity
	SocietyID           string
	SocietyName         string
	SocietyAddress      string
	SocietyRegistration string

	// Billing
	Currency string

	// HTTP
	HTTPAddr string
	BasePath string

	// Notifications
	WebhookURL    string
	WebhookSecret string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Store:               strings.ToLower(getEnv("DUES_STORE", StoreMemory)),
		StoreDSN:            getEnv("DUES_STORE_DSN", ""),
		SocietyID:           getEnv("DUES_SOCIETY_ID", "default"),
		SocietyName:         getEnv("DUES_SOCIETY_NAME", "Housing Society"),
		SocietyAddress:      getEnv("DUES_SOCIETY_ADDRESS", ""),
		SocietyRegistration: getEnv("DUES_SOCIETY_REGISTRATION", ""),
		Currency:            strings.ToLower(getEnv("DUES_CURRENCY", "inr")),
		HTTPAddr:            getEnv("DUES_HTTP_ADDR", ":8080"),
		BasePath:            getEnv("DUES_BASE_PATH", "/dues"),
		WebhookURL:          getEnv("DUES_WEBHOOK_URL", ""),
		WebhookSecret:       getEnv("DUES_WEBHOOK_SECRET", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite, StorePostgres, StoreMongo:
		if c.StoreDSN == "" {
			return fmt.Errorf("DUES_STORE_DSN is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("DUES_STORE must be one of memory, sqlite, postgres, mongo; got %q", c.Store)
	}
	if c.SocietyID == "" {
		return fmt.Errorf("DUES_SOCIETY_ID is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("DUES_CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
