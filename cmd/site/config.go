package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Site       SiteConfig       `mapstructure:"site"`
	Content    ContentConfig    `mapstructure:"content"`
	Converter  ConverterConfig  `mapstructure:"converter"`
	Playground PlaygroundConfig `mapstructure:"playground"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SiteConfig holds the public identity of the site, used for page titles
// and the RSS channel.
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

// ContentConfig holds the markdown content source configuration.
type ContentConfig struct {
	// Dir is the directory of markdown post files.
	Dir string `mapstructure:"dir"`

	// SyncInterval is how often to re-read the content directory.
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// ConverterConfig holds converter tuning.
type ConverterConfig struct {
	// Debounce is the delay between the last edit and the derived
	// conversion.
	Debounce time.Duration `mapstructure:"debounce"`
}

// PlaygroundConfig holds the simulated engine tuning.
type PlaygroundConfig struct {
	// BuildDelay is how long a simulated image pull or build takes.
	BuildDelay time.Duration `mapstructure:"build_delay"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/site.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("site.title", "samnesler.com")
	v.SetDefault("site.description", "Notes on containers and infrastructure")
	v.SetDefault("content.dir", "./content/posts")
	v.SetDefault("content.sync_interval", "60s")
	v.SetDefault("converter.debounce", "300ms")
	v.SetDefault("playground.build_delay", "2s")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
