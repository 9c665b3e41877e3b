package library

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"moviecase/internal/catalog"
	"moviecase/internal/logging"
	"moviecase/internal/services"
)

const stage = "library"

// Persister is the durability collaborator behind a Store. Remove deletes the
// movie or collection carrying id together with every membership that
// references it; ids are UUIDs and never collide across kinds.
type Persister interface {
	LoadAll(ctx context.Context) ([]catalog.Movie, []catalog.Collection, error)
	PersistMovie(ctx context.Context, movie catalog.Movie) error
	PersistCollection(ctx context.Context, collection catalog.Collection) error
	Remove(ctx context.Context, id string) error
}

// Store owns the movie and collection sets for one process. Every mutation is
// written through the persister before it becomes visible in memory, so a
// persistence failure leaves the in-memory state untouched. A nil persister
// keeps the store memory-only.
type Store struct {
	persister Persister
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.RWMutex
	movies      []catalog.Movie
	collections []catalog.Collection
	loaded      bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for seeded collections.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty, unloaded store.
func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, stage)
	return s
}

// Load replaces the in-memory sets with the persister's contents.
func (s *Store) Load(ctx context.Context) error {
	var (
		movies      []catalog.Movie
		collections []catalog.Collection
	)
	if s.persister != nil {
		var err error
		movies, collections, err = s.persister.LoadAll(ctx)
		if err != nil {
			return services.Wrap(services.ErrInternal, stage, "load", "read library", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = make([]catalog.Movie, 0, len(movies))
	for _, m := range movies {
		m = m.Clone()
		m.CollectionIDs = nil
		s.movies = append(s.movies, m)
	}
	s.collections = make([]catalog.Collection, 0, len(collections))
	for _, c := range collections {
		c = c.Clone()
		c.MovieIDs = slices.DeleteFunc(c.MovieIDs, func(id string) bool { return s.movieIndex(id) < 0 })
		s.collections = append(s.collections, c)
	}
	s.loaded = true

	s.logger.Debug("library loaded",
		logging.String(logging.FieldEventType, "library_loaded"),
		logging.Int("movie_count", len(s.movies)),
		logging.Int("collection_count", len(s.collections)))
	return nil
}

// Loaded reports whether Load has completed successfully.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Insert adds a new movie. Memberships listed in movie.CollectionIDs are
// attached to existing collections.
func (s *Store) Insert(ctx context.Context, movie catalog.Movie) error {
	movie = movie.Clone()
	movie.ID = strings.TrimSpace(movie.ID)
	if movie.ID == "" {
		return services.Wrap(services.ErrValidation, stage, "insert", "movie id is required", nil)
	}
	if strings.TrimSpace(movie.Title) == "" {
		return services.Wrap(services.ErrValidation, stage, "insert", "movie title is required", nil)
	}
	movie.UserRating = catalog.ClampRating(movie.UserRating)
	if movie.DateAdded.IsZero() {
		movie.DateAdded = s.now()
	}
	wanted := movie.CollectionIDs
	movie.CollectionIDs = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.movieIndex(movie.ID) >= 0 {
		return services.Wrap(services.ErrDuplicateID, stage, "insert", fmt.Sprintf("movie %s already exists", movie.ID), nil)
	}
	touched := make([]catalog.Collection, 0, len(wanted))
	for _, cid := range wanted {
		idx := s.collectionIndex(cid)
		if idx < 0 {
			return services.Wrap(services.ErrValidation, stage, "insert", fmt.Sprintf("unknown collection %s", cid), nil)
		}
		c := s.collections[idx].Clone()
		if !c.Contains(movie.ID) {
			c.MovieIDs = append(c.MovieIDs, movie.ID)
		}
		touched = append(touched, c)
	}

	if err := s.persistMovie(ctx, "insert", movie); err != nil {
		return err
	}
	for _, c := range touched {
		if err := s.persistCollection(ctx, "insert", c); err != nil {
			s.undoInsert(ctx, movie.ID)
			return err
		}
	}

	s.movies = append(s.movies, movie)
	for _, c := range touched {
		s.collections[s.collectionIndex(c.ID)] = c
	}
	s.logger.Debug("movie inserted", logging.Args(append(
		logging.MovieAttrs(movie.ID, movie.Title),
		logging.String(logging.FieldEventType, "movie_inserted"))...)...)
	return nil
}

// Update replaces an existing movie in place. DateAdded is immutable and the
// stored value always wins; collection membership is managed through
// AddToCollection and RemoveFromCollection.
func (s *Store) Update(ctx context.Context, movie catalog.Movie) error {
	movie = movie.Clone()
	if strings.TrimSpace(movie.Title) == "" {
		return services.Wrap(services.ErrValidation, stage, "update", "movie title is required", nil)
	}
	movie.UserRating = catalog.ClampRating(movie.UserRating)
	movie.CollectionIDs = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.movieIndex(movie.ID)
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, stage, "update", fmt.Sprintf("movie %s", movie.ID), nil)
	}
	movie.DateAdded = s.movies[idx].DateAdded

	if err := s.persistMovie(ctx, "update", movie); err != nil {
		return err
	}
	s.movies[idx] = movie
	s.logger.Debug("movie updated",
		logging.String(logging.FieldEventType, "movie_updated"),
		logging.String(logging.FieldMovieID, movie.ID))
	return nil
}

// Delete removes a movie and its memberships. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.movieIndex(id)
	if idx < 0 {
		return nil
	}

	var touched []catalog.Collection
	for _, c := range s.collections {
		if !c.Contains(id) {
			continue
		}
		c = c.Clone()
		c.MovieIDs = slices.DeleteFunc(c.MovieIDs, func(mid string) bool { return mid == id })
		touched = append(touched, c)
	}

	// Remove also drops the movie's membership rows, so the touched
	// collections need no separate write.
	if s.persister != nil {
		if err := s.persister.Remove(ctx, id); err != nil {
			return services.Wrap(services.ErrInternal, stage, "delete", fmt.Sprintf("remove movie %s", id), err)
		}
	}

	s.movies = slices.Delete(s.movies, idx, idx+1)
	for _, c := range touched {
		s.collections[s.collectionIndex(c.ID)] = c
	}
	s.logger.Debug("movie deleted",
		logging.String(logging.FieldEventType, "movie_deleted"),
		logging.String(logging.FieldMovieID, id),
		logging.Int("collections_touched", len(touched)))
	return nil
}

// undoInsert removes a movie row whose membership writes failed. Load drops
// membership ids that no longer resolve, so a partially written collection
// cannot resurrect the movie.
func (s *Store) undoInsert(ctx context.Context, id string) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Remove(ctx, id); err != nil {
		logging.WarnWithContext(s.logger, "failed to roll back movie insert", "insert_rollback_failed",
			logging.String(logging.FieldMovieID, id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the movie reappears on the next load"))
	}
}

// Movie returns a detached copy of the movie with id.
func (s *Store) Movie(id string) (catalog.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.movieIndex(id)
	if idx < 0 {
		return catalog.Movie{}, false
	}
	return s.detachMovie(s.movies[idx]), true
}

// Movies returns a point-in-time copy of every movie in insertion order.
func (s *Store) Movies() []catalog.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, s.detachMovie(m))
	}
	return out
}

// AllMovies iterates a snapshot taken when AllMovies is called; later
// mutations are not observed.
func (s *Store) AllMovies() iter.Seq[catalog.Movie] {
	return slices.Values(s.Movies())
}

// MovieCount returns the number of stored movies.
func (s *Store) MovieCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// FindByBarcode returns the first movie carrying code.
func (s *Store) FindByBarcode(code string) (catalog.Movie, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return catalog.Movie{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.movies {
		if catalog.Value(m.Barcode) == code {
			return s.detachMovie(m), true
		}
	}
	return catalog.Movie{}, false
}

func (s *Store) persistMovie(ctx context.Context, operation string, movie catalog.Movie) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.PersistMovie(ctx, movie); err != nil {
		return services.Wrap(services.ErrInternal, stage, operation, fmt.Sprintf("persist movie %s", movie.ID), err)
	}
	return nil
}

func (s *Store) persistCollection(ctx context.Context, operation string, c catalog.Collection) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.PersistCollection(ctx, c); err != nil {
		return services.Wrap(services.ErrInternal, stage, operation, fmt.Sprintf("persist collection %s", c.ID), err)
	}
	return nil
}

func (s *Store) detachMovie(m catalog.Movie) catalog.Movie {
	out := m.Clone()
	out.CollectionIDs = nil
	for _, c := range s.collections {
		if c.Contains(m.ID) {
			out.CollectionIDs = append(out.CollectionIDs, c.ID)
		}
	}
	return out
}

func (s *Store) movieIndex(id string) int {
	return slices.IndexFunc(s.movies, func(m catalog.Movie) bool { return m.ID == id })
}

func (s *Store) collectionIndex(id string) int {
	return slices.IndexFunc(s.collections, func(c catalog.Collection) bool { return c.ID == id })
}

// IsNotFound reports whether err carries the not-found marker.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
