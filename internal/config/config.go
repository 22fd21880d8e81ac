// Package config reads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Config captures runtime configuration values.
type Config struct {
	Addr         string
	WebDir       string
	DatabaseURL  string // empty selects the in-memory intake store
	DataDir      string // local key-value store directory
	KafkaBrokers []string
	KafkaTopic   string
	LogLevel     string
	LogFormat    string
	SessionTTL   time.Duration
	DisableAuth  bool
	Location     *time.Location

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// OIDCEnabled reports whether SSO login is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// DefaultDataDir is the XDG data directory of the application.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "hydration")
}

// Load reads the environment. A .env file in the working directory, when
// present, fills variables that are not already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:             getEnv("ADDR", ":8080"),
		WebDir:           getEnv("WEB_DIR", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DataDir:          getEnv("DATA_DIR", DefaultDataDir()),
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "hydration.goal-reached"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		SessionTTL:       getDurationEnv("SESSION_TTL", 24*time.Hour),
		DisableAuth:      getBoolEnv("DISABLE_AUTH", false),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),
		Location:         time.Local,
	}

	if tz := getEnv("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
