package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trainerdesk/internal/adapters/storage"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Defaults
const (
	DefaultAddr            = ":8080"
	DefaultDBPath          = "trainerdesk.db"
	DefaultDevTrainerID    = "dev-trainer"
	DefaultTimezone        = "Pacific/Auckland"
	DefaultHourHeight      = 60
	DefaultViewportHeight  = 600
	DefaultSessionLimit    = 100
	DefaultNotificationTTL = 15 * time.Minute
	DefaultSlowQueryMs     = 50
	DefaultSlowRequestMs   = 200
	DefaultRateLimit       = 20
)

// Config is the server configuration. Values come from defaults, then the
// optional YAML file, then TRAINERDESK_* environment variables.
type Config struct {
	Addr     string `yaml:"addr"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	DBDriver    string `yaml:"db_driver"` // sqlite or postgres
	DBPath      string `yaml:"db_path"`
	DatabaseURL string `yaml:"database_url"`

	// AuthJWTSecret verifies the auth provider's HS256 access tokens.
	AuthJWTSecret string `yaml:"auth_jwt_secret"`

	// DevTrainerID is used outside production when a request has no token.
	DevTrainerID string `yaml:"dev_trainer_id"`
	CSRFKey      string `yaml:"csrf_key"`

	Timezone       string  `yaml:"timezone"`
	HourHeight     float64 `yaml:"hour_height"`
	ViewportHeight float64 `yaml:"viewport_height"`
	SessionLimit   int     `yaml:"session_limit"`

	GoogleAPIEndpoint string        `yaml:"google_api_endpoint"`
	NotificationTTL   time.Duration `yaml:"notification_ttl"`

	SlowQueryMs        int `yaml:"slow_query_ms"`
	SlowRequestMs      int `yaml:"slow_request_ms"`
	RateLimitPerSecond int `yaml:"rate_limit_per_second"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	return &Config{
		Addr:               DefaultAddr,
		Env:                EnvDevelopment,
		LogLevel:           "info",
		DBDriver:           string(storage.DialectSQLite),
		DBPath:             DefaultDBPath,
		DevTrainerID:       DefaultDevTrainerID,
		Timezone:           DefaultTimezone,
		HourHeight:         DefaultHourHeight,
		ViewportHeight:     DefaultViewportHeight,
		SessionLimit:       DefaultSessionLimit,
		NotificationTTL:    DefaultNotificationTTL,
		SlowQueryMs:        DefaultSlowQueryMs,
		SlowRequestMs:      DefaultSlowRequestMs,
		RateLimitPerSecond: DefaultRateLimit,
	}
}

// Load builds the configuration.
// Outside production a .env file in the working directory is loaded first
// (missing is fine). path, when non-empty, names a YAML file; a missing file
// leaves the defaults in place.
// PRE: none
// POST: returned config is normalized and validated
func Load(path string) (*Config, error) {
	env := os.Getenv("TRAINERDESK_ENV")
	if env != EnvProduction {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("dotenv_load_failed", "error", err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Info("config_file_missing", "path", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TRAINERDESK_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("TRAINERDESK_ADDR", &c.Addr)
	str("TRAINERDESK_ENV", &c.Env)
	str("TRAINERDESK_LOG_LEVEL", &c.LogLevel)
	str("TRAINERDESK_DB_DRIVER", &c.DBDriver)
	str("TRAINERDESK_DB_PATH", &c.DBPath)
	str("DATABASE_URL", &c.DatabaseURL)
	str("TRAINERDESK_DATABASE_URL", &c.DatabaseURL)
	str("TRAINERDESK_AUTH_JWT_SECRET", &c.AuthJWTSecret)
	str("TRAINERDESK_DEV_TRAINER_ID", &c.DevTrainerID)
	str("TRAINERDESK_CSRF_KEY", &c.CSRFKey)
	str("TRAINERDESK_TIMEZONE", &c.Timezone)
	str("TRAINERDESK_GOOGLE_API_ENDPOINT", &c.GoogleAPIEndpoint)

	ints := []struct {
		key string
		dst *int
	}{
		{"TRAINERDESK_SESSION_LIMIT", &c.SessionLimit},
		{"TRAINERDESK_SLOW_QUERY_MS", &c.SlowQueryMs},
		{"TRAINERDESK_SLOW_REQUEST_MS", &c.SlowRequestMs},
		{"TRAINERDESK_RATE_LIMIT", &c.RateLimitPerSecond},
	}
	for _, f := range ints {
		if v := strings.TrimSpace(getenv(f.key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"TRAINERDESK_HOUR_HEIGHT", &c.HourHeight},
		{"TRAINERDESK_VIEWPORT_HEIGHT", &c.ViewportHeight},
	}
	for _, f := range floats {
		if v := strings.TrimSpace(getenv(f.key)); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	if v := strings.TrimSpace(getenv("TRAINERDESK_NOTIFICATION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRAINERDESK_NOTIFICATION_TTL: %w", err)
		}
		c.NotificationTTL = d
	}
	return nil
}

// Normalize fills zero values with defaults so partial files still work.
func (c *Config) Normalize() {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = d.Env
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "" {
		c.DBDriver = d.DBDriver
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.HourHeight <= 0 {
		c.HourHeight = d.HourHeight
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = d.ViewportHeight
	}
	if c.SessionLimit <= 0 {
		c.SessionLimit = d.SessionLimit
	}
	if c.NotificationTTL <= 0 {
		c.NotificationTTL = d.NotificationTTL
	}
	if c.SlowQueryMs <= 0 {
		c.SlowQueryMs = d.SlowQueryMs
	}
	if c.SlowRequestMs <= 0 {
		c.SlowRequestMs = d.SlowRequestMs
	}
	if c.RateLimitPerSecond <= 0 {
		c.RateLimitPerSecond = d.RateLimitPerSecond
	}
}

// Validate rejects configurations the server cannot start with.
// PRE: Normalize has run
// POST: Returns nil if the server can start, error otherwise
func (c *Config) Validate() error {
	switch storage.Dialect(c.DBDriver) {
	case storage.DialectSQLite:
	case storage.DialectPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres driver requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.IsProduction() {
		if c.AuthJWTSecret == "" {
			return errors.New("auth_jwt_secret is required in production")
		}
		if len(c.CSRFKey) < 32 {
			return errors.New("csrf_key must be at least 32 bytes in production")
		}
	}
	return nil
}

// IsProduction reports whether Env is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Dialect returns the storage dialect for DBDriver.
func (c *Config) Dialect() storage.Dialect {
	return storage.Dialect(c.DBDriver)
}
