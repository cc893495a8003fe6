package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Preferences
	PrefsPath string

	// Live queries
	LiveGrace time.Duration

	// Logging
	LogLevel string

	// Date presets are computed in this zone ("Local" or an IANA name)
	Timezone string
}

func Load() *Config {
	return &Config{
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		PrefsPath:    getEnv("PREFS_PATH", "./data/prefs.env"),
		LiveGrace:    getEnvDuration("LIVE_GRACE", 5*time.Second),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Timezone:     getEnv("TIMEZONE", "Local"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if err := ensureDir(c.SQLiteDBPath); err != nil {
		errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
	}

	if c.PrefsPath == "" {
		errors = append(errors, "preferences path cannot be empty")
	} else if err := ensureDir(c.PrefsPath); err != nil {
		errors = append(errors, fmt.Sprintf("cannot create preferences directory: %v", err))
	}

	if c.LiveGrace < 0 {
		errors = append(errors, fmt.Sprintf("invalid live grace %v: must not be negative", c.LiveGrace))
	} else if c.LiveGrace > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid live grace %v: must be at most 1 minute", c.LiveGrace))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
