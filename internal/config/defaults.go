package config

const (
	defaultConfigPath          = "~/.config/moviecase/config.toml"
	defaultDataDir             = "~/.local/share/moviecase"
	defaultLogDir              = "~/.local/share/moviecase/logs"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL    = "https://image.tmdb.org/t/p/w500"
	defaultTMDBLanguage        = "en-US"
	defaultOMDbBaseURL         = "https://www.omdbapi.com/"
	defaultBarcodeBaseURL      = "https://api.upcitemdb.com/prod/trial"
	defaultBarcodeCacheFile    = "barcode_cache.json"
	defaultPosterBackend       = "sqlite"
	defaultPosterMaxEntries    = 256
	defaultPosterMaxMegabytes  = 64
	defaultPosterKeyPrefix     = "moviecase:poster:"
	defaultPosterPrefetch      = 4
	defaultRequestTimeout      = 15
	defaultRequestsPerSecond   = 4
	defaultRequestBurst        = 4
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMovieRating         = 5
	minAPIKeyLength            = 8
	databaseFileName           = "library.db"
	PosterBackendSQLite        = "sqlite"
	PosterBackendRedis         = "redis"
	defaultBarcodeCacheEnabled = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:      defaultTMDBBaseURL,
			ImageBaseURL: defaultTMDBImageBaseURL,
			Language:     defaultTMDBLanguage,
		},
		OMDb: OMDb{
			BaseURL: defaultOMDbBaseURL,
		},
		Barcode: Barcode{
			BaseURL:      defaultBarcodeBaseURL,
			CacheEnabled: defaultBarcodeCacheEnabled,
		},
		PosterCache: PosterCache{
			Backend:      defaultPosterBackend,
			MaxEntries:   defaultPosterMaxEntries,
			MaxMegabytes: defaultPosterMaxMegabytes,
			KeyPrefix:    defaultPosterKeyPrefix,
			Prefetch:     defaultPosterPrefetch,
		},
		Lookup: Lookup{
			RequestTimeoutSeconds: defaultRequestTimeout,
			RequestsPerSecond:     defaultRequestsPerSecond,
			Burst:                 defaultRequestBurst,
		},
		Preferences: DefaultPreferences(),
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
