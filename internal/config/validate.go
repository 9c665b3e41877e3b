package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing provider keys are not
// errors here: lookups report them as not configured when they are attempted.
func (c *Config) Validate() error {
	if err := c.validatePosterCache(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.Preferences.Validate(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePosterCache() error {
	switch c.PosterCache.Backend {
	case PosterBackendSQLite:
	case PosterBackendRedis:
		if c.PosterCache.RedisURL == "" {
			return errors.New("poster_cache.redis_url must be set when poster_cache.backend is \"redis\" (or export REDIS_URL)")
		}
	default:
		return fmt.Errorf("poster_cache.backend: unsupported value %q (use sqlite or redis)", c.PosterCache.Backend)
	}
	if c.PosterCache.MaxEntries <= 0 {
		return errors.New("poster_cache.max_entries must be positive")
	}
	if c.PosterCache.MaxMegabytes <= 0 {
		return errors.New("poster_cache.max_megabytes must be positive")
	}
	return nil
}

func (c *Config) validateLookup() error {
	if c.Lookup.RequestsPerSecond < 0 {
		return errors.New("lookup.requests_per_second must not be negative (0 disables limiting)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
