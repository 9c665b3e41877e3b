package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeOMDb()
	if err := c.normalizeBarcode(); err != nil {
		return err
	}
	c.normalizePosterCache()
	c.normalizeLookup()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	url := strings.TrimSpace(c.Library.DatabaseURL)
	if url == "" {
		if value, ok := os.LookupEnv("MOVIECASE_DATABASE_URL"); ok {
			url = strings.TrimSpace(value)
		}
	}
	switch {
	case url == "":
		c.Library.DatabaseURL = filepath.Join(c.Paths.DataDir, databaseFileName)
	case IsRemoteDatabaseURL(url), strings.HasPrefix(url, "file:"):
		c.Library.DatabaseURL = url
	default:
		expanded, err := expandPath(url)
		if err != nil {
			return fmt.Errorf("library.database_url: %w", err)
		}
		c.Library.DatabaseURL = expanded
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeOMDb() {
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = value
		}
	}
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}
}

func (c *Config) normalizeBarcode() error {
	if c.Barcode.UserKey == "" {
		if value, ok := os.LookupEnv("UPCITEMDB_USER_KEY"); ok {
			c.Barcode.UserKey = value
		}
	}
	c.Barcode.UserKey = strings.TrimSpace(c.Barcode.UserKey)
	c.Barcode.BaseURL = strings.TrimSpace(c.Barcode.BaseURL)
	if c.Barcode.BaseURL == "" {
		c.Barcode.BaseURL = defaultBarcodeBaseURL
	}
	if strings.TrimSpace(c.Barcode.CachePath) == "" {
		c.Barcode.CachePath = filepath.Join(c.Paths.DataDir, defaultBarcodeCacheFile)
	}
	var err error
	if c.Barcode.CachePath, err = expandPath(c.Barcode.CachePath); err != nil {
		return fmt.Errorf("barcode.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePosterCache() {
	c.PosterCache.Backend = strings.ToLower(strings.TrimSpace(c.PosterCache.Backend))
	if c.PosterCache.Backend == "" {
		c.PosterCache.Backend = defaultPosterBackend
	}
	if c.PosterCache.RedisURL == "" {
		if value, ok := os.LookupEnv("REDIS_URL"); ok {
			c.PosterCache.RedisURL = value
		}
	}
	c.PosterCache.RedisURL = strings.TrimSpace(c.PosterCache.RedisURL)
	if strings.TrimSpace(c.PosterCache.KeyPrefix) == "" {
		c.PosterCache.KeyPrefix = defaultPosterKeyPrefix
	}
	if c.PosterCache.Prefetch <= 0 {
		c.PosterCache.Prefetch = defaultPosterPrefetch
	}
}

func (c *Config) normalizeLookup() {
	if c.Lookup.RequestTimeoutSeconds <= 0 {
		c.Lookup.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.Lookup.Burst <= 0 {
		c.Lookup.Burst = defaultRequestBurst
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
