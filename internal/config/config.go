// Package config provides environment-driven configuration for the recoup server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	// Relay cursor engine.
	RelayInterval  time.Duration
	RelayBatchSize int

	// Debounced broadcaster.
	DebounceWindow time.Duration

	// Snapshot capture job.
	CaptureHour       int
	CaptureMinute     int
	CaptureBatchSize  int
	CaptureBatchDelay time.Duration

	// Weekday excluded from trend series (business calendar rest day).
	RestWeekday time.Weekday
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3040"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	var err error
	if cfg.RelayInterval, err = envDurationMS("RELAY_INTERVAL_MS", 500, 100, 60_000); err != nil {
		return nil, err
	}

	if cfg.RelayBatchSize, err = envInt("RELAY_BATCH_SIZE", 50, 1, 1000); err != nil {
		return nil, err
	}

	if cfg.DebounceWindow, err = envDurationMS("DEBOUNCE_WINDOW_MS", 2000, 100, 60_000); err != nil {
		return nil, err
	}

	if cfg.CaptureBatchSize, err = envInt("CAPTURE_BATCH_SIZE", 1000, 100, 10_000); err != nil {
		return nil, err
	}

	if cfg.CaptureBatchDelay, err = envDurationMS("CAPTURE_BATCH_DELAY_MS", 200, 0, 10_000); err != nil {
		return nil, err
	}

	if cfg.CaptureHour, cfg.CaptureMinute, err = parseTimeOfDay(envOrDefault("CAPTURE_TIME", "23:00")); err != nil {
		return nil, err
	}

	if cfg.RestWeekday, err = parseWeekday(envOrDefault("REST_WEEKDAY", "sunday")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	return c.validateCORS()
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		if dbURL.Query().Get("sslmode") == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

// parseTimeOfDay parses a HH:MM wall-clock string.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("CAPTURE_TIME must be HH:MM, got %q", s)
	}

	return t.Hour(), t.Minute(), nil
}

// parseWeekday maps an English weekday name to time.Weekday.
func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}

	return 0, fmt.Errorf("REST_WEEKDAY must be a weekday name, got %q", s)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func envInt(key string, def, minVal, maxVal int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(def)))
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, minVal, maxVal)
	}

	return v, nil
}

func envDurationMS(key string, def, minVal, maxVal int) (time.Duration, error) {
	ms, err := envInt(key, def, minVal, maxVal)
	if err != nil {
		return 0, err
	}

	return time.Duration(ms) * time.Millisecond, nil
}
