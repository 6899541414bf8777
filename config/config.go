/*
Package config loads service settings from the environment.

A .env file is read when present; real environment variables win over it.
The process environment is never modified.

VARIABLES:
  APP_ENV                 development | production (default development)
  APP_ADDR                Listen address (default :8080)
  DB_PATH                 SQLite file (default payroll.db)
  JOBS_FILE               JSON/YAML job configuration seeding an empty store
  SETTINGS_PASSWORD_HASH  bcrypt hash of the wage-settings password
  SETTINGS_PASSWORD       Plain password, hashed at startup (development)
  JWT_SECRET              HS256 secret for settings tokens
  TOKEN_TTL               Settings token lifetime (default 12h)
  CORS_ORIGINS            Comma-separated allowed origins (default *)
  CALENDAR_ACCESS_TOKEN   OAuth token; enables the background calendar sync
  CALENDAR_ID             Calendar to sync (default primary)
  CALENDAR_SYNC_INTERVAL  Sync period (default 1h)
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/shift-payroll/auth"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// devSecret keeps development logins working without configuration.
const devSecret = "dev-only-secret"

type Config struct {
	Environment  string
	Addr         string
	DBPath       string
	JobsFile     string
	PasswordHash string
	Password     string
	JWTSecret    string
	TokenTTL     time.Duration
	CORSOrigins  []string
	DotEnvLoaded bool

	CalendarToken    string
	CalendarID       string
	CalendarInterval time.Duration
}

// Load reads the dotenv file at path (".env" when empty), if it exists,
// underneath the process environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	file, err := godotenv.Read(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		file = nil
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	getenv := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}
	return FromEnv(getenv, file != nil)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string, dotEnvLoaded bool) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, errors.New("TOKEN_TTL must be positive")
	}

	interval, err := time.ParseDuration(get("CALENDAR_SYNC_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("CALENDAR_SYNC_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, errors.New("CALENDAR_SYNC_INTERVAL must be positive")
	}

	cfg := &Config{
		Environment:  get("APP_ENV", EnvDevelopment),
		Addr:         get("APP_ADDR", ":8080"),
		DBPath:       get("DB_PATH", "payroll.db"),
		JobsFile:     get("JOBS_FILE", ""),
		PasswordHash: get("SETTINGS_PASSWORD_HASH", ""),
		Password:     getenv("SETTINGS_PASSWORD"),
		JWTSecret:    get("JWT_SECRET", ""),
		TokenTTL:     ttl,
		CORSOrigins:  splitList(get("CORS_ORIGINS", "*")),
		DotEnvLoaded: dotEnvLoaded,

		CalendarToken:    get("CALENDAR_ACCESS_TOKEN", ""),
		CalendarID:       get("CALENDAR_ID", "primary"),
		CalendarInterval: interval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devSecret
	}
	return cfg, nil
}

// Validate rejects a production setup that would leave the wage settings
// unprotected.
func (c *Config) Validate() error {
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	if c.Environment != EnvProduction {
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.PasswordHash == "" && c.Password == "" {
		return errors.New("SETTINGS_PASSWORD_HASH is required in production")
	}
	return nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// CalendarSyncEnabled reports whether a calendar token was configured.
func (c *Config) CalendarSyncEnabled() bool {
	return c.CalendarToken != ""
}

// SettingsHash returns the bcrypt hash guarding wage edits, hashing the
// plain password when no hash was configured. An empty result means wage
// edits are disabled.
func (c *Config) SettingsHash() (string, error) {
	if c.PasswordHash != "" {
		return c.PasswordHash, nil
	}
	if c.Password == "" {
		return "", nil
	}
	return auth.HashPassword(c.Password)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
