package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/auth"
	"github.com/warp/shift-payroll/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil), false)
	require.NoError(t, err)

	assert.Equal(t, config.EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "payroll.db", cfg.DBPath)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.CalendarSyncEnabled())
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, time.Hour, cfg.CalendarInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"APP_ADDR":     ":9090",
		"DB_PATH":      "/var/lib/payroll.db",
		"TOKEN_TTL":    "30m",
		"CORS_ORIGINS": "https://a.example, https://b.example,",
		"JOBS_FILE":    "jobs.yaml",

		"CALENDAR_ACCESS_TOKEN":  "ya29.token",
		"CALENDAR_SYNC_INTERVAL": "15m",
	}), false)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/var/lib/payroll.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "jobs.yaml", cfg.JobsFile)
	assert.True(t, cfg.CalendarSyncEnabled())
	assert.Equal(t, 15*time.Minute, cfg.CalendarInterval)
}

func TestFromEnv_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":                {"TOKEN_TTL": "soon"},
		"negative ttl":           {"TOKEN_TTL": "-1h"},
		"unknown env":            {"APP_ENV": "staging"},
		"zero sync interval":     {"CALENDAR_SYNC_INTERVAL": "0s"},
		"production no secret":   {"APP_ENV": "production", "SETTINGS_PASSWORD_HASH": "x"},
		"production no password": {"APP_ENV": "production", "JWT_SECRET": "s"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromEnv(env(vars), false)
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_Production(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"APP_ENV":                "production",
		"JWT_SECRET":             "s3cret",
		"SETTINGS_PASSWORD_HASH": "$2a$10$abc",
	}), false)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestSettingsHash(t *testing.T) {
	t.Run("configured hash is used as is", func(t *testing.T) {
		cfg := &config.Config{PasswordHash: "$2a$10$abc", Password: "ignored"}
		hash, err := cfg.SettingsHash()
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$abc", hash)
	})

	t.Run("plain password is hashed", func(t *testing.T) {
		cfg := &config.Config{Password: "open sesame"}
		hash, err := cfg.SettingsHash()
		require.NoError(t, err)
		assert.NoError(t, auth.CheckPassword(hash, "open sesame"))
	})

	t.Run("no password disables edits", func(t *testing.T) {
		hash, err := (&config.Config{}).SettingsHash()
		require.NoError(t, err)
		assert.Empty(t, hash)
	})
}

func TestLoad_DotEnvFile(t *testing.T) {
	// GIVEN: A .env file with settings nobody exports
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHIFT_PAYROLL_UNUSED=1\nJOBS_FILE=from-dotenv.yaml\n"), 0o600))

	// WHEN: Loading it
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// THEN: File values fill in what the environment lacks
	assert.True(t, cfg.DotEnvLoaded)
	if _, set := os.LookupEnv("JOBS_FILE"); !set {
		assert.Equal(t, "from-dotenv.yaml", cfg.JobsFile)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.False(t, cfg.DotEnvLoaded)
}
