// Package config loads the fins configuration from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// StorageDir is where persistent variables are written.
	StorageDir string `yaml:"storage_dir"`
	// CacheDir holds the http and symbol caches.
	CacheDir string `yaml:"cache_dir"`
	// EODHDAPIKey is the key of the market data provider.
	EODHDAPIKey string `yaml:"eodhd_api_key"`
	LogLevel    string `yaml:"log_level"`
	// Addr is the listen address of the server.
	Addr string `yaml:"addr"`
	// MaxConcurrentFetches bounds the parallel requests to the provider.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`
	// PurgeSchedule is the cron spec of the cache purge in server mode.
	PurgeSchedule string `yaml:"purge_schedule"`
	// GeminiAPIKey enables the assistant.
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		StorageDir:           filepath.Join(home, ".fins", "variables"),
		CacheDir:             filepath.Join(home, ".fins", "cache"),
		LogLevel:             "warn",
		Addr:                 ":8080",
		MaxConcurrentFetches: 8,
		PurgeSchedule:        "0 0 3 * * *",
		GeminiModel:          "gemini-2.5-flash",
	}
}

// DefaultPath returns the path of the configuration file read when none is given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fins", "config.yaml")
	}
	return ""
}

// Load reads the configuration file at path, if it exists, then applies the
// .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
			}
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg.StorageDir = getEnv("FINS_STORAGE_DIR", cfg.StorageDir)
	cfg.CacheDir = getEnv("FINS_CACHE_DIR", cfg.CacheDir)
	cfg.EODHDAPIKey = getEnv("EODHD_API_KEY", cfg.EODHDAPIKey)
	cfg.LogLevel = getEnv("FINS_LOG_LEVEL", cfg.LogLevel)
	cfg.Addr = getEnv("FINS_ADDR", cfg.Addr)
	cfg.MaxConcurrentFetches = getEnvAsInt("FINS_MAX_CONCURRENT_FETCHES", cfg.MaxConcurrentFetches)
	cfg.PurgeSchedule = getEnv("FINS_PURGE_SCHEDULE", cfg.PurgeSchedule)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("FINS_GEMINI_MODEL", cfg.GeminiModel)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.StorageDir == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache directory cannot be empty")
	}
	if c.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("max concurrent fetches must be greater than 0, got %d", c.MaxConcurrentFetches)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
