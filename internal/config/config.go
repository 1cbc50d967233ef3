// Package config loads and validates environment-based configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// DBPath is the SQLite database file; created on first start.
	DBPath string

	// GeminiAPIKey authenticates calls to the generative-language API.
	// Optional at startup; generation endpoints fail per-request without it.
	GeminiAPIKey string

	// TransitBaseURL overrides the transport.rest API root (tests, proxies).
	TransitBaseURL string

	// GeminiBaseURL overrides the generative-language API root.
	GeminiBaseURL string

	// GuideDir is where generated guide documents are written; defaults to
	// the system temp directory.
	GuideDir string

	Port int
}

// Load reads and validates environment variables.
// Returns a ConfigError for any invalid value.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DBPath = os.Getenv("DB_PATH")
	if cfg.DBPath == "" {
		cfg.DBPath = "stops.db"
	}

	cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	// Not strictly required for bootstrap; profile and guide requests
	// report a generation failure if it is missing.

	cfg.TransitBaseURL = os.Getenv("TRANSIT_BASE_URL")
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	cfg.GuideDir = os.Getenv("GUIDE_DIR")

	portStr := os.Getenv("PORT")
	if portStr == "" {
		cfg.Port = 8080
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, &ConfigError{Field: "PORT", Message: "must be a valid integer"}
		}
		if port < 1 || port > 65535 {
			return nil, &ConfigError{Field: "PORT", Message: "must be between 1 and 65535"}
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Validate re-checks required fields on an already-constructed Config.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, &ConfigError{Field: "DB_PATH", Message: "cannot be empty"})
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, &ConfigError{Field: "PORT", Message: "must be between 1 and 65535"})
	}
	return errors.Join(errs...)
}
