package postercache

import (
	"context"
	"fmt"

	"moviecase/internal/config"
)

// OpenDurable selects the durable tier named by poster_cache.backend. The
// returned closer releases backend resources; it is a no-op for the local
// store, which the caller owns.
func OpenDurable(ctx context.Context, cfg *config.Config, local BlobStore) (BlobStore, func() error, error) {
	switch cfg.PosterCache.Backend {
	case config.PosterBackendRedis:
		store, err := NewRedisStore(ctx, cfg.PosterCache.RedisURL, cfg.PosterCache.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.PosterBackendSQLite, "":
		return local, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown poster cache backend %q", cfg.PosterCache.Backend)
	}
}
