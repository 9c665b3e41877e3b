package testsupport

import (
	"path/filepath"
	"strings"
	"testing"

	"moviecase/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Provider keys are fake, rate limiting is off, and the barcode cache lives
// under the temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Library.DatabaseURL = filepath.Join(base, "data", "library.db")
	cfgVal.Barcode.CachePath = filepath.Join(base, "data", "barcode_cache.json")
	cfgVal.TMDB.APIKey = "test-tmdb-key"
	cfgVal.OMDb.APIKey = "test-omdb-key"
	cfgVal.Lookup.RequestsPerSecond = 0
	cfgVal.Lookup.RequestTimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithOMDbKey sets the OMDb API key on the test config.
func WithOMDbKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.APIKey = key
	}
}

// WithProviderServer points every provider at one test server. TMDB is served
// under /tmdb, OMDb at /omdb/, and the barcode provider under /upc.
func WithProviderServer(url string) ConfigOption {
	return func(b *configBuilder) {
		url = strings.TrimRight(url, "/")
		b.cfg.TMDB.BaseURL = url + "/tmdb"
		b.cfg.TMDB.ImageBaseURL = url + "/images"
		b.cfg.OMDb.BaseURL = url + "/omdb/"
		b.cfg.Barcode.BaseURL = url + "/upc"
	}
}

// WithoutBarcodeCache disables the barcode mapping cache.
func WithoutBarcodeCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Barcode.CacheEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
