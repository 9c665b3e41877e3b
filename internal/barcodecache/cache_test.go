package barcodecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"moviecase/internal/services"
)

func TestCacheStoreAndLookup(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "barcodes.json")
	cache := NewCache(cachePath, nil)

	entry := Entry{
		Barcode:      "883929106707",
		Title:        "Inception",
		IMDbID:       "tt1375666",
		ProductTitle: "INCEPTION (BLU-RAY)",
		CachedAt:     time.Now(),
	}
	if err := cache.Store(entry); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	found, ok := cache.Lookup(" 883929106707 ")
	if !ok {
		t.Fatal("Lookup failed to find stored entry")
	}
	if found.Title != entry.Title || found.IMDbID != entry.IMDbID {
		t.Errorf("unexpected entry %+v", found)
	}
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "nested", "barcodes.json")
	cache := NewCache(cachePath, nil)
	if err := cache.Store(Entry{Barcode: "1", Title: "One"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := os.Stat(cachePath + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should be renamed away")
	}

	reloaded := NewCache(cachePath, nil)
	if reloaded.Count() != 1 {
		t.Fatalf("expected 1 entry after reload, got %d", reloaded.Count())
	}
	if entry, _ := reloaded.Lookup("1"); entry.CachedAt.IsZero() {
		t.Error("CachedAt should be stamped on store")
	}
}

func TestCacheListNewestFirst(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "barcodes.json"), nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, code := range []string{"a", "b", "c"} {
		if err := cache.Store(Entry{Barcode: code, Title: code, CachedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	list := cache.List()
	if len(list) != 3 || list[0].Barcode != "c" || list[2].Barcode != "a" {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestCacheRemoveAndClear(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "barcodes.json"), nil)
	_ = cache.Store(Entry{Barcode: "1", Title: "One"})
	_ = cache.Store(Entry{Barcode: "2", Title: "Two"})

	if err := cache.Remove("1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := cache.Remove("1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := cache.Remove(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Count())
	}
}

func TestCacheCorruptFileStartsEmpty(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "barcodes.json")
	if err := os.WriteFile(cachePath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cache := NewCache(cachePath, nil)
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Count())
	}
	if err := cache.Store(Entry{Barcode: "1", Title: "One"}); err != nil {
		t.Fatalf("Store after corrupt load failed: %v", err)
	}
}

func TestCacheDisabledWithEmptyPath(t *testing.T) {
	cache := NewCache("", nil)
	if cache.Enabled() {
		t.Fatal("expected disabled cache")
	}
	if err := cache.Store(Entry{Barcode: "1", Title: "One"}); err != nil {
		t.Fatalf("Store on disabled cache: %v", err)
	}
	if _, ok := cache.Lookup("1"); ok {
		t.Fatal("disabled cache should never hit")
	}
	if cache.List() != nil || cache.Count() != 0 {
		t.Fatal("disabled cache should be empty")
	}
	if err := cache.Store(Entry{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty barcode, got %v", err)
	}
}
