package sqlitestore_test

import (
	"context"
	"testing"
	"time"

	"moviecase/internal/catalog"
	"moviecase/internal/config"
	"moviecase/internal/library/sqlitestore"
	"moviecase/internal/testsupport"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	if err := first.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if first.Remote() {
		t.Fatal("expected local store")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := sqlitestore.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	movies, collections, err := second.LoadAll(context.Background())
	if err != nil || len(movies) != 0 || len(collections) != 0 {
		t.Fatalf("expected empty library, got %d movies %d collections %v", len(movies), len(collections), err)
	}
}

func TestOpenURLRejectsEmpty(t *testing.T) {
	if _, err := sqlitestore.OpenURL(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestPersistMovieUpsertKeepsOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	added := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	a := catalog.NewMovie("A", added)
	b := catalog.NewMovie("B", added)
	b.TMDBID = new(int64)
	*b.TMDBID = 42
	b.Barcode = catalog.Str("012345678905")
	b.IsWanted = true
	for _, m := range []catalog.Movie{a, b} {
		if err := store.PersistMovie(ctx, m); err != nil {
			t.Fatalf("PersistMovie: %v", err)
		}
	}
	a.Title = "A2"
	a.Plot = catalog.Str("updated")
	if err := store.PersistMovie(ctx, a); err != nil {
		t.Fatalf("PersistMovie update: %v", err)
	}

	movies, _, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(movies) != 2 || movies[0].Title != "A2" || movies[1].Title != "B" {
		t.Fatalf("unexpected order or titles: %+v", movies)
	}
	if catalog.Value(movies[0].Plot) != "updated" {
		t.Fatalf("plot not updated: %v", movies[0].Plot)
	}
	got := movies[1]
	if catalog.Value(got.TMDBID) != 42 || catalog.Value(got.Barcode) != "012345678905" || !got.IsWanted {
		t.Fatalf("unexpected fields %+v", got)
	}
	if got.Year != nil || got.UserRating != nil || got.PosterData != nil {
		t.Fatalf("expected absent optional fields, got %+v", got)
	}
}

func TestCollectionMembershipAndRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	m1 := catalog.NewMovie("One", now)
	m2 := catalog.NewMovie("Two", now)
	for _, m := range []catalog.Movie{m1, m2} {
		if err := store.PersistMovie(ctx, m); err != nil {
			t.Fatalf("PersistMovie: %v", err)
		}
	}
	c := catalog.NewCollection("Shelf", now)
	c.Icon = catalog.Str("star")
	c.MovieIDs = []string{m2.ID, m1.ID}
	if err := store.PersistCollection(ctx, c); err != nil {
		t.Fatalf("PersistCollection: %v", err)
	}

	_, collections, err := store.LoadAll(ctx)
	if err != nil || len(collections) != 1 {
		t.Fatalf("LoadAll: %d %v", len(collections), err)
	}
	if got := collections[0].MovieIDs; len(got) != 2 || got[0] != m2.ID || got[1] != m1.ID {
		t.Fatalf("membership order not preserved: %v", got)
	}
	if catalog.Value(collections[0].Icon) != "star" || collections[0].Description != nil {
		t.Fatalf("unexpected collection fields %+v", collections[0])
	}

	if err := store.Remove(ctx, m2.ID); err != nil {
		t.Fatalf("Remove movie: %v", err)
	}
	_, collections, _ = store.LoadAll(ctx)
	if got := collections[0].MovieIDs; len(got) != 1 || got[0] != m1.ID {
		t.Fatalf("expected membership cleanup, got %v", got)
	}

	if err := store.Remove(ctx, c.ID); err != nil {
		t.Fatalf("Remove collection: %v", err)
	}
	movies, collections, _ := store.LoadAll(ctx)
	if len(collections) != 0 || len(movies) != 1 {
		t.Fatalf("expected only the collection removed, got %d movies %d collections", len(movies), len(collections))
	}
	if err := store.Remove(ctx, "unknown"); err != nil {
		t.Fatalf("Remove unknown: %v", err)
	}
}

func TestBlobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.GetBlob(ctx, "https://img/a.jpg"); ok || err != nil {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}
	if err := store.PutBlob(ctx, "https://img/a.jpg", []byte("one")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if err := store.PutBlob(ctx, "https://img/a.jpg", []byte("two")); err != nil {
		t.Fatalf("PutBlob replace: %v", err)
	}
	data, ok, err := store.GetBlob(ctx, "https://img/a.jpg")
	if err != nil || !ok || string(data) != "two" {
		t.Fatalf("unexpected blob %q %v %v", data, ok, err)
	}
	if n, _ := store.CountBlobs(ctx); n != 1 {
		t.Fatalf("expected 1 blob, got %d", n)
	}
	if err := store.ClearBlobs(ctx); err != nil {
		t.Fatalf("ClearBlobs: %v", err)
	}
	if n, _ := store.CountBlobs(ctx); n != 0 {
		t.Fatalf("expected 0 blobs, got %d", n)
	}
}

func TestSettingsBackPreferences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	prefs := config.DefaultPreferences()
	prefs.DefaultRating = 8
	prefs.ShowMovieCount = false
	if err := config.SavePreferences(ctx, store, prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	loaded, err := config.LoadPreferences(ctx, store, config.DefaultPreferences())
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if loaded.DefaultRating != 8 || loaded.ShowMovieCount {
		t.Fatalf("unexpected preferences %+v", loaded)
	}

	reset, err := config.ResetPreferences(ctx, store, config.DefaultPreferences())
	if err != nil {
		t.Fatalf("ResetPreferences: %v", err)
	}
	if reset != config.DefaultPreferences() {
		t.Fatalf("expected defaults after reset, got %+v", reset)
	}
	values, _ := store.LoadSettings(ctx)
	if len(values) != 0 {
		t.Fatalf("expected cleared settings, got %v", values)
	}
}
