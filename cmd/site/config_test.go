package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data/site.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "./content/posts", cfg.Content.Dir)
	assert.Equal(t, 60*time.Second, cfg.Content.SyncInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.Converter.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Playground.BuildDelay)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 60s

database:
  dsn: "/tmp/test.db"

log:
  level: "debug"
  format: "text"

site:
  base_url: "https://blog.example.com"
  title: "My Blog"

content:
  dir: "/srv/posts"
  sync_interval: 5m

converter:
  debounce: 150ms
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "https://blog.example.com", cfg.Site.BaseURL)
	assert.Equal(t, "My Blog", cfg.Site.Title)
	assert.Equal(t, "/srv/posts", cfg.Content.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Content.SyncInterval)
	assert.Equal(t, 150*time.Millisecond, cfg.Converter.Debounce)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("SITE_SERVER_HOST", "192.168.1.1")
	t.Setenv("SITE_SERVER_PORT", "3000")
	t.Setenv("SITE_DATABASE_DSN", "/custom/path.db")
	t.Setenv("SITE_LOG_LEVEL", "warn")
	t.Setenv("SITE_CONTENT_DIR", "/mnt/posts")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/mnt/posts", cfg.Content.Dir)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err) // Should not error, just use defaults

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		cfg := &Config{
			Log: LogConfig{
				Level:  "info",
				Format: format,
			},
		}

		logger := SetupLogger(cfg)
		assert.NotNil(t, logger)
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "invalid"} {
		cfg := &Config{
			Log: LogConfig{
				Level:  level,
				Format: "json",
			},
		}

		// Should never panic, invalid falls back to info
		logger := SetupLogger(cfg)
		assert.NotNil(t, logger)
	}
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestConfig_Address(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}

	assert.Equal(t, "localhost:8080", cfg.Server.Address())
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SITE_SERVER_HOST",
		"SITE_SERVER_PORT",
		"SITE_DATABASE_DSN",
		"SITE_LOG_LEVEL",
		"SITE_LOG_FORMAT",
		"SITE_CONTENT_DIR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
