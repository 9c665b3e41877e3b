package testsupport

import (
	"context"
	"testing"
	"time"

	"moviecase/internal/catalog"
	"moviecase/internal/config"
	"moviecase/internal/library"
	"moviecase/internal/library/sqlitestore"
)

// MustOpenStore opens a sqlitestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlitestore.Store {
	t.Helper()

	store, err := sqlitestore.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("sqlitestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenLibrary opens a persisted, loaded library.Store.
func MustOpenLibrary(t testing.TB, cfg *config.Config) (*library.Store, *sqlitestore.Store) {
	t.Helper()

	db := MustOpenStore(t, cfg)
	lib := library.New(db)
	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("library.Load: %v", err)
	}
	return lib, db
}

// NewMovie builds a movie with the given title, added at addedAt.
func NewMovie(title string, addedAt time.Time) catalog.Movie {
	return catalog.NewMovie(title, addedAt)
}

// MustInsert stores a movie and fails the test on error.
func MustInsert(t testing.TB, lib *library.Store, movie catalog.Movie) catalog.Movie {
	t.Helper()

	if err := lib.Insert(context.Background(), movie); err != nil {
		t.Fatalf("Insert(%q): %v", movie.Title, err)
	}
	return movie
}
