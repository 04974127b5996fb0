// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	StorePath       string
	ManualTokenPath string
	LogPath         string
	BaseURL         string
	RefreshInterval time.Duration
	StaleAfter      time.Duration
}

// Default values. RefreshInterval drives the background scheduler;
// StaleAfter is the dashboard's own staleness marker. They are
// independent knobs, not two views of one setting.
const (
	defaultRefreshInterval = 60 * time.Second
	defaultStaleAfter      = 20 * time.Second
	defaultBaseURL         = "https://api.anthropic.com"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StorePath:       getEnvString("CLAUDEWATCH_STORE_PATH", defaultConfigPath("claudewatch.db")),
		ManualTokenPath: getEnvString("CLAUDEWATCH_TOKEN_PATH", defaultConfigPath("token")),
		LogPath:         getEnvString("CLAUDEWATCH_LOG_PATH", defaultConfigPath("claudewatch.log")),
		BaseURL:         getEnvString("CLAUDEWATCH_BASE_URL", defaultBaseURL),
		RefreshInterval: getEnvDuration("CLAUDEWATCH_REFRESH_INTERVAL", defaultRefreshInterval),
		StaleAfter:      getEnvDuration("CLAUDEWATCH_STALE_AFTER", defaultStaleAfter),
	}

	if err := ensureDir(filepath.Dir(cfg.StorePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.ManualTokenPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "claudewatch", ".env"),
			filepath.Join(home, ".claudewatch", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// defaultConfigPath returns a path inside the claudewatch config directory.
func defaultConfigPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "claudewatch", name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or bare seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
