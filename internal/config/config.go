package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Library contains configuration for the collection database.
type Library struct {
	// DatabaseURL is a local SQLite path or a libsql:// / wss:// remote URL.
	// Empty means <data_dir>/library.db.
	DatabaseURL string `toml:"database_url"`
}

// TMDB contains configuration for The Movie Database API (popular lists and search).
type TMDB struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
	Language     string `toml:"language"`
}

// OMDb contains configuration for the OMDb API (title and IMDb id lookups).
type OMDb struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Barcode contains configuration for UPC product lookups and the local barcode cache.
type Barcode struct {
	BaseURL      string `toml:"base_url"`
	UserKey      string `toml:"user_key"`
	CacheEnabled bool   `toml:"cache_enabled"`
	CachePath    string `toml:"cache_path"`
}

// PosterCache contains configuration for the two-tier poster cache.
type PosterCache struct {
	Backend      string `toml:"backend"` // "sqlite" or "redis"
	MaxEntries   int    `toml:"max_entries"`
	MaxMegabytes int    `toml:"max_megabytes"`
	RedisURL     string `toml:"redis_url"`
	KeyPrefix    string `toml:"key_prefix"`
	Prefetch     int    `toml:"prefetch_concurrency"`
}

// Lookup contains shared HTTP settings for the external providers.
type Lookup struct {
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	Burst                 int     `toml:"burst"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for moviecase.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Library: collection database location
//   - TMDB: popular lists and free-text search
//   - OMDb: single-title lookups by title or IMDb id
//   - Barcode: UPC product lookup and barcode mapping cache
//   - PosterCache: memory + durable poster storage
//   - Lookup: request timeout and rate limiting for providers
//   - Preferences: user-facing defaults (overridable from the settings table)
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Library     Library     `toml:"library"`
	TMDB        TMDB        `toml:"tmdb"`
	OMDb        OMDb        `toml:"omdb"`
	Barcode     Barcode     `toml:"barcode"`
	PosterCache PosterCache `toml:"poster_cache"`
	Lookup      Lookup      `toml:"lookup"`
	Preferences Preferences `toml:"preferences"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is read
// first so provider keys can live outside config.toml; it never overrides variables
// that are already set.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("moviecase.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file guarding single-process ownership of the library.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "library.lock")
}

// IsRemoteDatabase reports whether the library database lives on a libsql server.
func (c *Config) IsRemoteDatabase() bool {
	return IsRemoteDatabaseURL(c.Library.DatabaseURL)
}

// IsRemoteDatabaseURL reports whether url addresses a libsql server rather than a local file.
func IsRemoteDatabaseURL(url string) bool {
	url = strings.TrimSpace(url)
	return strings.HasPrefix(url, "libsql://") || strings.HasPrefix(url, "wss://") || strings.HasPrefix(url, "https://")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// APIKeyStatus classifies a provider key as "missing", "suspect" (shorter than
// eight characters), or "ok".
func APIKeyStatus(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return "missing"
	case len(key) < minAPIKeyLength:
		return "suspect"
	default:
		return "ok"
	}
}
