package postercache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"moviecase/internal/config"
	"moviecase/internal/logging"
)

const (
	defaultMaxEntries = 256
	defaultMaxBytes   = 64 << 20
	maxPosterBytes    = 10 << 20
	defaultTimeout    = 15 * time.Second
)

// BlobStore is the durable tier. Implementations must be safe for concurrent use.
type BlobStore interface {
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	PutBlob(ctx context.Context, key string, data []byte) error
	ClearBlobs(ctx context.Context) error
	CountBlobs(ctx context.Context) (int, error)
}

// Cache is a two-tier poster cache: a bounded in-memory LRU in front of an
// optional durable BlobStore.
type Cache struct {
	// mu is held for writing only by Clear, so a clear is atomic with respect
	// to reads and writes of either tier.
	mu      sync.RWMutex
	memMu   sync.Mutex
	memory  *lru.Cache[string, []byte]
	bytes   atomic.Int64
	maxSize int
	maxMem  int64
	durable BlobStore
	epoch   atomic.Uint64

	http   *http.Client
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient overrides the client used for poster downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLimits bounds the memory tier by entry count and total bytes.
func WithLimits(maxEntries int, maxBytes int64) Option {
	return func(c *Cache) {
		if maxEntries > 0 {
			c.maxSize = maxEntries
		}
		if maxBytes > 0 {
			c.maxMem = maxBytes
		}
	}
}

// New builds a cache. A nil durable store keeps posters in memory only.
func New(durable BlobStore, opts ...Option) (*Cache, error) {
	c := &Cache{
		maxSize: defaultMaxEntries,
		maxMem:  defaultMaxBytes,
		durable: durable,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "postercache")

	memory, err := lru.NewWithEvict(c.maxSize, func(_ string, value []byte) {
		c.bytes.Add(-int64(len(value)))
	})
	if err != nil {
		return nil, fmt.Errorf("create memory tier: %w", err)
	}
	c.memory = memory
	return c, nil
}

// NewFromConfig builds a cache sized from the poster_cache section.
func NewFromConfig(cfg *config.Config, durable BlobStore, logger *slog.Logger) (*Cache, error) {
	timeout := time.Duration(cfg.Lookup.RequestTimeoutSeconds) * time.Second
	return New(durable,
		WithLimits(cfg.PosterCache.MaxEntries, int64(cfg.PosterCache.MaxMegabytes)<<20),
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithLogger(logger),
	)
}

// Get returns cached bytes, checking memory before the durable tier. Durable
// hits are promoted into memory.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if data, ok := c.memory.Get(key); ok {
		return data, true
	}
	if c.durable == nil {
		return nil, false
	}
	data, ok, err := c.durable.GetBlob(ctx, key)
	if err != nil {
		c.logger.Warn("durable poster read failed", logging.Args(append(
			logging.PosterAttrs("poster_read_failed", key, err),
			logging.String(logging.FieldImpact, "poster served from network instead"))...)...)
		return nil, false
	}
	if !ok || len(data) == 0 {
		return nil, false
	}
	c.remember(key, data)
	return data, true
}

// Put stores data in both tiers.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.put(ctx, key, data)
}

func (c *Cache) put(ctx context.Context, key string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("poster key is empty")
	}
	if len(data) == 0 {
		return errors.New("poster data is empty")
	}
	if c.durable != nil {
		if err := c.durable.PutBlob(ctx, key, data); err != nil {
			return fmt.Errorf("store poster: %w", err)
		}
	}
	c.remember(key, data)
	return nil
}

// FetchAndCache returns cached bytes for url or downloads and caches them.
// Any download failure yields nil. Concurrent calls for the same url share one
// download, and a download that straddles Clear is not written back.
func (c *Cache) FetchAndCache(ctx context.Context, url string) []byte {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if data, ok := c.Get(ctx, url); ok {
		return data
	}

	epoch := c.epoch.Load()
	value, err, _ := c.group.Do(url, func() (any, error) {
		data, err := c.download(ctx, url)
		if err != nil {
			return nil, err
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.epoch.Load() != epoch {
			return data, nil
		}
		if err := c.put(ctx, url, data); err != nil {
			c.logger.Warn("poster cache write failed", logging.Args(append(
				logging.PosterAttrs("poster_write_failed", url, err),
				logging.String(logging.FieldImpact, "poster will be downloaded again next time"))...)...)
		}
		return data, nil
	})
	if err != nil {
		c.logger.Debug("poster download failed",
			logging.Args(logging.PosterAttrs("poster_download_failed", url, err)...)...)
		return nil
	}
	data, _ := value.([]byte)
	return data
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poster request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poster request: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read poster: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("poster body is empty")
	}
	if len(data) > maxPosterBytes {
		return nil, fmt.Errorf("poster exceeds %d bytes", maxPosterBytes)
	}
	return data, nil
}

// Clear empties both tiers. Gets that start after Clear returns miss, and
// downloads already in flight are not written back.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch.Add(1)
	c.memMu.Lock()
	c.memory.Purge()
	c.bytes.Store(0)
	c.memMu.Unlock()
	if c.durable != nil {
		if err := c.durable.ClearBlobs(ctx); err != nil {
			return fmt.Errorf("clear durable posters: %w", err)
		}
	}
	c.logger.Info("poster cache cleared", logging.String(logging.FieldEventType, "poster_cache_cleared"))
	return nil
}

// Prefetch warms the cache for urls with at most concurrency downloads in
// flight and reports how many posters are now cached.
func (c *Cache) Prefetch(ctx context.Context, urls []string, concurrency int) (int, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var cached atomic.Int64
	for _, url := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if c.FetchAndCache(gctx, url) != nil {
				cached.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return int(cached.Load()), err
}

// Stats describes cache occupancy.
type Stats struct {
	MemoryEntries  int   `json:"memory_entries"`
	MemoryBytes    int64 `json:"memory_bytes"`
	MaxEntries     int   `json:"max_entries"`
	MaxBytes       int64 `json:"max_bytes"`
	DurableEntries int   `json:"durable_entries"`
}

// Stats reports memory occupancy and, when available, the durable entry
// count (-1 when it cannot be read).
func (c *Cache) Stats(ctx context.Context) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := Stats{
		MemoryEntries: c.memory.Len(),
		MemoryBytes:   c.bytes.Load(),
		MaxEntries:    c.maxSize,
		MaxBytes:      c.maxMem,
	}
	if c.durable != nil {
		n, err := c.durable.CountBlobs(ctx)
		if err != nil {
			n = -1
		}
		stats.DurableEntries = n
	}
	return stats
}

// remember adds data to the memory tier and evicts the oldest entries until
// the byte budget holds. Items larger than the whole budget stay durable-only.
func (c *Cache) remember(key string, data []byte) {
	size := int64(len(data))
	if size > c.maxMem {
		return
	}
	c.memMu.Lock()
	defer c.memMu.Unlock()

	if c.memory.Contains(key) {
		c.memory.Remove(key)
	}
	c.memory.Add(key, data)
	c.bytes.Add(size)
	for c.bytes.Load() > c.maxMem {
		if _, _, ok := c.memory.RemoveOldest(); !ok {
			break
		}
	}
}
