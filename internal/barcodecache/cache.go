package barcodecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"moviecase/internal/logging"
	"moviecase/internal/services"
)

// Entry maps a scanned barcode to the title it resolved to.
type Entry struct {
	Barcode      string    `json:"barcode"`
	Title        string    `json:"title"`
	IMDbID       string    `json:"imdb_id,omitempty"`
	ProductTitle string    `json:"product_title,omitempty"` // raw title from the UPC provider
	CachedAt     time.Time `json:"cached_at"`
}

// Cache provides thread-safe access to the barcode mapping file.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates a cache backed by path. An empty path disables the cache
// and every operation becomes a no-op. The file is created on first Store.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "barcodecache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load barcode cache",
			logging.String(logging.FieldEventType, "barcodecache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "previously scanned barcodes will be looked up again"))
	}
	return c
}

// Enabled reports whether the cache has a backing file.
func (c *Cache) Enabled() bool {
	return c != nil && c.path != ""
}

// Lookup returns the mapping for barcode.
func (c *Cache) Lookup(barcode string) (Entry, bool) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" || !c.Enabled() {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, found := c.entries[barcode]
	return entry, found
}

// Store adds or replaces a mapping and persists the file.
func (c *Cache) Store(entry Entry) error {
	entry.Barcode = strings.TrimSpace(entry.Barcode)
	if entry.Barcode == "" {
		return services.Wrap(services.ErrValidation, "barcodecache", "store", "barcode cannot be empty", nil)
	}
	if !c.Enabled() {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Barcode] = entry
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached barcode mapping",
		logging.String("barcode", entry.Barcode),
		logging.String("title", entry.Title),
		logging.String("imdb_id", entry.IMDbID))
	return nil
}

// Remove deletes a mapping and persists the change.
func (c *Cache) Remove(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return services.Wrap(services.ErrValidation, "barcodecache", "remove", "barcode cannot be empty", nil)
	}
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[barcode]; !exists {
		return services.Wrap(services.ErrNotFound, "barcodecache", "remove", fmt.Sprintf("barcode %q not cached", barcode), nil)
	}
	delete(c.entries, barcode)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("removed barcode from cache", logging.String("barcode", barcode))
	return nil
}

// List returns every mapping, newest first.
func (c *Cache) List() []Entry {
	if !c.Enabled() {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sorted()
}

// Clear removes every mapping and persists the empty file.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cleared barcode cache")
	return nil
}

// Count returns the number of mappings.
func (c *Cache) Count() int {
	if !c.Enabled() {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) sorted() []Entry {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CachedAt.Equal(entries[j].CachedAt) {
			return entries[i].Barcode < entries[j].Barcode
		}
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	for _, entry := range entries {
		if code := strings.TrimSpace(entry.Barcode); code != "" {
			c.entries[code] = entry
		}
	}

	c.logger.Debug("loaded barcode cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache atomically via a temp file and rename.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
