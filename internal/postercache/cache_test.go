package postercache_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"moviecase/internal/config"
	"moviecase/internal/postercache"
	"moviecase/internal/testsupport"
)

type memoryBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
	gets atomic.Int64
}

func newMemoryBlobs() *memoryBlobs { return &memoryBlobs{data: map[string][]byte{}} }

func (m *memoryBlobs) GetBlob(_ context.Context, key string) ([]byte, bool, error) {
	m.gets.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, ok, nil
}

func (m *memoryBlobs) PutBlob(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memoryBlobs) ClearBlobs(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func (m *memoryBlobs) CountBlobs(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data), nil
}

func TestPutGetClear(t *testing.T) {
	blobs := newMemoryBlobs()
	cache, err := postercache.New(blobs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := cache.Put(ctx, "u1", []byte("b1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ok := cache.Get(ctx, "u1")
	if !ok || string(data) != "b1" {
		t.Fatalf("expected b1, got %q %v", data, ok)
	}
	if blobs.gets.Load() != 0 {
		t.Fatal("memory hit should not touch the durable tier")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Fatal("expected miss after clear")
	}
	if stats := cache.Stats(ctx); stats.MemoryEntries != 0 || stats.MemoryBytes != 0 || stats.DurableEntries != 0 {
		t.Fatalf("unexpected stats after clear %+v", stats)
	}
}

func TestDurableHitIsPromoted(t *testing.T) {
	blobs := newMemoryBlobs()
	_ = blobs.PutBlob(context.Background(), "u2", []byte("durable"))
	cache, _ := postercache.New(blobs)
	ctx := context.Background()

	if data, ok := cache.Get(ctx, "u2"); !ok || string(data) != "durable" {
		t.Fatalf("expected durable hit, got %q %v", data, ok)
	}
	before := blobs.gets.Load()
	if _, ok := cache.Get(ctx, "u2"); !ok {
		t.Fatal("expected promoted hit")
	}
	if blobs.gets.Load() != before {
		t.Fatal("promoted entry should be served from memory")
	}
}

func TestMemoryTierHonoursByteBudget(t *testing.T) {
	cache, _ := postercache.New(nil, postercache.WithLimits(10, 10))
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Put(ctx, key, bytes.Repeat([]byte("x"), 4)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	stats := cache.Stats(ctx)
	if stats.MemoryBytes > 10 || stats.MemoryEntries != 2 {
		t.Fatalf("expected budget enforced, got %+v", stats)
	}
	if _, ok := cache.Get(ctx, "a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}

	if err := cache.Put(ctx, "huge", bytes.Repeat([]byte("x"), 11)); err != nil {
		t.Fatalf("Put huge: %v", err)
	}
	if _, ok := cache.Get(ctx, "huge"); ok {
		t.Fatal("entries larger than the budget should not stay in memory")
	}
}

func TestFetchAndCacheDownloadsOnce(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("jpeg"))
	}))
	t.Cleanup(server.Close)

	blobs := newMemoryBlobs()
	cache, _ := postercache.New(blobs, postercache.WithHTTPClient(server.Client()))
	ctx := context.Background()
	url := server.URL + "/poster.jpg"

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.FetchAndCache(ctx, url)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, data := range results {
		if string(data) != "jpeg" {
			t.Fatalf("result %d = %q", i, data)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one download, got %d", hits.Load())
	}
	if data, ok, _ := blobs.GetBlob(ctx, url); !ok || string(data) != "jpeg" {
		t.Fatal("download should be written to the durable tier")
	}
	if cache.FetchAndCache(ctx, url) == nil || hits.Load() != 1 {
		t.Fatal("cached poster should not be downloaded again")
	}
}

func TestFetchAndCacheFailureReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cache, _ := postercache.New(nil)
	ctx := context.Background()
	if data := cache.FetchAndCache(ctx, server.URL+"/missing.jpg"); data != nil {
		t.Fatalf("expected nil on 404, got %q", data)
	}
	if data := cache.FetchAndCache(ctx, "http://127.0.0.1:1/unreachable.jpg"); data != nil {
		t.Fatalf("expected nil on network failure, got %q", data)
	}
	if data := cache.FetchAndCache(ctx, "  "); data != nil {
		t.Fatal("expected nil for empty url")
	}
}

func TestClearDuringDownloadDoesNotRepopulate(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(server.Close)

	cache, _ := postercache.New(newMemoryBlobs())
	ctx := context.Background()
	url := server.URL + "/late.jpg"

	done := make(chan []byte)
	go func() { done <- cache.FetchAndCache(ctx, url) }()
	<-started
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	close(release)
	if data := <-done; string(data) != "late" {
		t.Fatalf("caller should still receive bytes, got %q", data)
	}
	if _, ok := cache.Get(ctx, url); ok {
		t.Fatal("download started before clear must not be cached")
	}
}

func TestPrefetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.jpg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	t.Cleanup(server.Close)

	cache, _ := postercache.New(nil)
	urls := []string{server.URL + "/a.jpg", server.URL + "/b.jpg", server.URL + "/bad.jpg"}
	n, err := cache.Prefetch(context.Background(), urls, 2)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 cached, got %d %v", n, err)
	}
}

func TestSQLiteDurableTier(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	durable, closeFn, err := postercache.OpenDurable(ctx, cfg, db)
	if err != nil {
		t.Fatalf("OpenDurable: %v", err)
	}
	defer closeFn()

	first, _ := postercache.NewFromConfig(cfg, durable, nil)
	if err := first.Put(ctx, "u1", []byte("b1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	second, _ := postercache.NewFromConfig(cfg, durable, nil)
	if data, ok := second.Get(ctx, "u1"); !ok || string(data) != "b1" {
		t.Fatalf("expected durable hit across caches, got %q %v", data, ok)
	}
}

func TestOpenDurableRejectsUnknownBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.PosterCache.Backend = "memcached"
	if _, _, err := postercache.OpenDurable(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("MOVIECASE_TEST_REDIS")
	if url == "" {
		t.Skip("MOVIECASE_TEST_REDIS not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	prefix := "moviecase-test:" + t.Name() + ":"
	store := postercache.NewRedisStoreFromClient(redis.NewClient(opts), prefix)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	cfg := testsupport.NewConfig(t)
	cfg.PosterCache.Backend = config.PosterBackendRedis
	cache, _ := postercache.NewFromConfig(cfg, store, nil)
	if err := cache.Put(ctx, "u1", []byte("b1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n, err := store.CountBlobs(ctx); err != nil || n != 1 {
		t.Fatalf("expected 1 key, got %d %v", n, err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, err := store.GetBlob(ctx, "u1"); ok || err != nil {
		t.Fatalf("expected redis miss after clear, got %v %v", ok, err)
	}
}
