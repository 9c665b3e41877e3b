package library_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"moviecase/internal/catalog"
	"moviecase/internal/library"
	"moviecase/internal/services"
	"moviecase/internal/testsupport"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newMemoryStore(t *testing.T) *library.Store {
	t.Helper()
	store := library.New(nil, library.WithClock(func() time.Time { return base }))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	movie := catalog.NewMovie("Heat", base)
	testsupport.MustInsert(t, store, movie)

	dup := catalog.NewMovie("Other", base)
	dup.ID = movie.ID
	if err := store.Insert(ctx, dup); !errors.Is(err, services.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if store.MovieCount() != 1 {
		t.Fatalf("expected 1 movie, got %d", store.MovieCount())
	}
}

func TestInsertValidatesAndClamps(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, catalog.Movie{Title: "No ID"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	if err := store.Insert(ctx, catalog.Movie{ID: "x", Title: "  "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	movie := catalog.NewMovie("Loud", base)
	movie.UserRating = catalog.Int(42)
	testsupport.MustInsert(t, store, movie)
	got, _ := store.Movie(movie.ID)
	if catalog.Value(got.UserRating) != catalog.MaxRating {
		t.Fatalf("expected clamped rating, got %v", got.UserRating)
	}
}

func TestUpdateKeepsDateAddedAndPosition(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	first := testsupport.MustInsert(t, store, catalog.NewMovie("First", base))
	testsupport.MustInsert(t, store, catalog.NewMovie("Second", base.Add(time.Hour)))

	edited, ok := store.Movie(first.ID)
	if !ok {
		t.Fatal("expected movie")
	}
	edited.Title = "First (edited)"
	edited.DateAdded = base.Add(72 * time.Hour)
	edited.UserRating = catalog.Int(0)
	if err := store.Update(ctx, edited); err != nil {
		t.Fatalf("Update: %v", err)
	}

	movies := store.Movies()
	if movies[0].ID != first.ID || movies[0].Title != "First (edited)" {
		t.Fatalf("expected edited movie in original position, got %+v", movies[0])
	}
	if !movies[0].DateAdded.Equal(base) {
		t.Fatalf("DateAdded changed to %v", movies[0].DateAdded)
	}
	if catalog.Value(movies[0].UserRating) != catalog.MinRating {
		t.Fatalf("expected clamped rating 1, got %v", movies[0].UserRating)
	}

	missing := catalog.NewMovie("Ghost", base)
	if err := store.Update(ctx, missing); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemovesMembershipAndIsIdempotent(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	movie := testsupport.MustInsert(t, store, catalog.NewMovie("Alien", base))
	if _, err := store.SeedDefaultCollectionsIfEmpty(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	horror, ok := store.CollectionByName("horror")
	if !ok {
		t.Fatal("expected Horror collection")
	}
	scifi, _ := store.CollectionByName("Sci-Fi")
	for _, c := range []catalog.Collection{horror, scifi} {
		if err := store.AddToCollection(ctx, c.ID, movie.ID); err != nil {
			t.Fatalf("AddToCollection: %v", err)
		}
	}
	if got, _ := store.Movie(movie.ID); len(got.CollectionIDs) != 2 {
		t.Fatalf("expected 2 memberships, got %v", got.CollectionIDs)
	}

	if err := store.Delete(ctx, movie.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for c := range store.AllCollections() {
		if c.Contains(movie.ID) {
			t.Fatalf("collection %s still references deleted movie", c.Name)
		}
	}
	if err := store.Delete(ctx, movie.ID); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	if len(store.Collections()) != 6 {
		t.Fatalf("expected collections untouched, got %d", len(store.Collections()))
	}
}

func TestDeleteCollectionKeepsMovies(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	movie := testsupport.MustInsert(t, store, catalog.NewMovie("Up", base))
	c := catalog.NewCollection("Favourites", base)
	c.MovieIDs = []string{movie.ID, "unknown"}
	if err := store.InsertCollection(ctx, c); err != nil {
		t.Fatalf("InsertCollection: %v", err)
	}
	stored, _ := store.Collection(c.ID)
	if !slices.Equal(stored.MovieIDs, []string{movie.ID}) {
		t.Fatalf("expected unknown member dropped, got %v", stored.MovieIDs)
	}

	if err := store.DeleteCollection(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if _, ok := store.Movie(movie.ID); !ok {
		t.Fatal("deleting a collection removed its movie")
	}
	if err := store.DeleteCollection(ctx, c.ID); err != nil {
		t.Fatalf("second DeleteCollection should be a no-op, got %v", err)
	}
}

func TestInsertCollectionRequiresName(t *testing.T) {
	store := newMemoryStore(t)
	if err := store.InsertCollection(context.Background(), catalog.NewCollection("  ", base)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSnapshotsAreDetached(t *testing.T) {
	store := newMemoryStore(t)

	testsupport.MustInsert(t, store, catalog.NewMovie("One", base))
	seq := store.AllMovies()
	testsupport.MustInsert(t, store, catalog.NewMovie("Two", base))

	count := 0
	for m := range seq {
		m.Title = "mutated"
		count++
	}
	if count != 1 {
		t.Fatalf("snapshot observed later insert: %d movies", count)
	}
	for _, m := range store.Movies() {
		if m.Title == "mutated" {
			t.Fatal("mutating a snapshot changed the store")
		}
	}

	got, _ := store.Movie(store.Movies()[0].ID)
	got.Title = "changed"
	if again, _ := store.Movie(got.ID); again.Title == "changed" {
		t.Fatal("Movie returned an aliased record")
	}
}

func TestSeedDefaultCollectionsIfEmpty(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	n, err := store.SeedDefaultCollectionsIfEmpty(ctx)
	if err != nil || n != 6 {
		t.Fatalf("expected 6 seeded, got %d %v", n, err)
	}
	n, err = store.SeedDefaultCollectionsIfEmpty(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected second seed to be a no-op, got %d %v", n, err)
	}
}

func TestMembershipErrors(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	movie := testsupport.MustInsert(t, store, catalog.NewMovie("M", base))
	if err := store.AddToCollection(ctx, "missing", movie.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing collection, got %v", err)
	}
	c := catalog.NewCollection("C", base)
	if err := store.InsertCollection(ctx, c); err != nil {
		t.Fatalf("InsertCollection: %v", err)
	}
	if err := store.AddToCollection(ctx, c.ID, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing movie, got %v", err)
	}
	if err := store.AddToCollection(ctx, c.ID, movie.ID); err != nil {
		t.Fatalf("AddToCollection: %v", err)
	}
	if err := store.AddToCollection(ctx, c.ID, movie.ID); err != nil {
		t.Fatalf("repeat AddToCollection: %v", err)
	}
	members, err := store.MoviesInCollection(c.ID)
	if err != nil || len(members) != 1 {
		t.Fatalf("expected one member, got %d %v", len(members), err)
	}
	if err := store.RemoveFromCollection(ctx, c.ID, movie.ID); err != nil {
		t.Fatalf("RemoveFromCollection: %v", err)
	}
	if len(store.CollectionsForMovie(movie.ID)) != 0 {
		t.Fatal("expected no memberships after removal")
	}
}

type failingPersister struct{ err error }

func (f failingPersister) LoadAll(context.Context) ([]catalog.Movie, []catalog.Collection, error) {
	return nil, nil, nil
}
func (f failingPersister) PersistMovie(context.Context, catalog.Movie) error { return f.err }
func (f failingPersister) PersistCollection(context.Context, catalog.Collection) error {
	return f.err
}
func (f failingPersister) Remove(context.Context, string) error { return f.err }

func TestPersistFailureLeavesMemoryUntouched(t *testing.T) {
	store := library.New(failingPersister{err: errors.New("disk full")})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := store.Insert(context.Background(), catalog.NewMovie("Lost", base))
	if !errors.Is(err, services.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if store.MovieCount() != 0 {
		t.Fatal("failed insert should not be visible")
	}
}

// recordingPersister keeps durable state in maps and can be told to fail
// collection writes only.
type recordingPersister struct {
	movies          map[string]catalog.Movie
	collections     map[string]catalog.Collection
	failCollections bool
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{
		movies:      map[string]catalog.Movie{},
		collections: map[string]catalog.Collection{},
	}
}

func (p *recordingPersister) LoadAll(context.Context) ([]catalog.Movie, []catalog.Collection, error) {
	var movies []catalog.Movie
	for _, m := range p.movies {
		movies = append(movies, m)
	}
	var collections []catalog.Collection
	for _, c := range p.collections {
		collections = append(collections, c)
	}
	return movies, collections, nil
}

func (p *recordingPersister) PersistMovie(_ context.Context, m catalog.Movie) error {
	p.movies[m.ID] = m.Clone()
	return nil
}

func (p *recordingPersister) PersistCollection(_ context.Context, c catalog.Collection) error {
	if p.failCollections {
		return errors.New("disk full")
	}
	p.collections[c.ID] = c.Clone()
	return nil
}

func (p *recordingPersister) Remove(_ context.Context, id string) error {
	delete(p.movies, id)
	delete(p.collections, id)
	for cid, c := range p.collections {
		c.MovieIDs = slices.DeleteFunc(c.MovieIDs, func(mid string) bool { return mid == id })
		p.collections[cid] = c
	}
	return nil
}

func TestInsertRollsBackMovieWhenMembershipWriteFails(t *testing.T) {
	ctx := context.Background()
	persister := newRecordingPersister()
	store := library.New(persister)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	favorites := catalog.NewCollection("Favorites", base)
	if err := store.InsertCollection(ctx, favorites); err != nil {
		t.Fatalf("InsertCollection: %v", err)
	}

	persister.failCollections = true
	movie := catalog.NewMovie("Heat", base)
	movie.CollectionIDs = []string{favorites.ID}
	if err := store.Insert(ctx, movie); !errors.Is(err, services.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if store.MovieCount() != 0 {
		t.Fatal("failed insert should not be visible in memory")
	}
	if len(persister.movies) != 0 {
		t.Fatalf("failed insert left %d durable movies", len(persister.movies))
	}

	reloaded := library.New(persister)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.MovieCount() != 0 {
		t.Fatal("failed insert reappeared after reload")
	}
}

func TestDeleteStaysInStepWhenCollectionWritesFail(t *testing.T) {
	ctx := context.Background()
	persister := newRecordingPersister()
	store := library.New(persister)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	favorites := catalog.NewCollection("Favorites", base)
	if err := store.InsertCollection(ctx, favorites); err != nil {
		t.Fatalf("InsertCollection: %v", err)
	}
	movie := catalog.NewMovie("Heat", base)
	movie.CollectionIDs = []string{favorites.ID}
	testsupport.MustInsert(t, store, movie)

	persister.failCollections = true
	if err := store.Delete(ctx, movie.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.Movie(movie.ID); ok {
		t.Fatal("deleted movie still in memory")
	}
	if _, ok := persister.movies[movie.ID]; ok {
		t.Fatal("deleted movie still durable")
	}
	if got := persister.collections[favorites.ID].MovieIDs; len(got) != 0 {
		t.Fatalf("durable membership not dropped: %v", got)
	}
	if c, _ := store.CollectionByName("Favorites"); c.MovieCount() != 0 {
		t.Fatalf("in-memory membership not dropped: %v", c.MovieIDs)
	}
}

func TestPersistedRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	movie := catalog.NewMovie("Arrival", base)
	movie.Year = catalog.Int(2016)
	movie.Director = catalog.Str("Denis Villeneuve")
	movie.UserRating = catalog.Int(9)
	movie.PosterData = []byte{0xff, 0xd8}
	testsupport.MustInsert(t, store, movie)
	if _, err := store.SeedDefaultCollectionsIfEmpty(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	scifi, _ := store.CollectionByName("Sci-Fi")
	if err := store.AddToCollection(ctx, scifi.ID, movie.ID); err != nil {
		t.Fatalf("AddToCollection: %v", err)
	}

	reopened, _ := testsupport.MustOpenLibrary(t, cfg)
	got, ok := reopened.Movie(movie.ID)
	if !ok {
		t.Fatal("movie not persisted")
	}
	if got.Title != "Arrival" || catalog.Value(got.Year) != 2016 || catalog.Value(got.UserRating) != 9 {
		t.Fatalf("unexpected persisted movie %+v", got)
	}
	if !got.DateAdded.Equal(base) || string(got.PosterData) != "\xff\xd8" {
		t.Fatalf("unexpected date or poster: %v %v", got.DateAdded, got.PosterData)
	}
	if !slices.Equal(got.CollectionIDs, []string{scifi.ID}) {
		t.Fatalf("expected Sci-Fi membership, got %v", got.CollectionIDs)
	}
	if len(reopened.Collections()) != 6 {
		t.Fatalf("expected 6 collections, got %d", len(reopened.Collections()))
	}

	if err := reopened.Delete(ctx, movie.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	third, _ := testsupport.MustOpenLibrary(t, cfg)
	if third.MovieCount() != 0 {
		t.Fatal("delete not persisted")
	}
	if sf, _ := third.CollectionByName("Sci-Fi"); sf.MovieCount() != 0 {
		t.Fatalf("membership not cleaned up: %v", sf.MovieIDs)
	}
}
