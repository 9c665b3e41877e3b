package library

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"moviecase/internal/catalog"
	"moviecase/internal/logging"
	"moviecase/internal/services"
)

// InsertCollection adds a new collection. Members that are not stored movies
// are dropped.
func (s *Store) InsertCollection(ctx context.Context, c catalog.Collection) error {
	c = c.Clone()
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" {
		return services.Wrap(services.ErrValidation, stage, "insert collection", "collection id is required", nil)
	}
	if c.Name == "" {
		return services.Wrap(services.ErrValidation, stage, "insert collection", "collection name is required", nil)
	}
	if c.DateCreated.IsZero() {
		c.DateCreated = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(c.ID) >= 0 {
		return services.Wrap(services.ErrDuplicateID, stage, "insert collection", fmt.Sprintf("collection %s already exists", c.ID), nil)
	}
	c.MovieIDs = s.knownMovies(c.MovieIDs)
	if err := s.persistCollection(ctx, "insert collection", c); err != nil {
		return err
	}
	s.collections = append(s.collections, c)
	s.logger.Debug("collection inserted",
		logging.String(logging.FieldEventType, "collection_inserted"),
		logging.String("collection_id", c.ID),
		logging.String("name", c.Name))
	return nil
}

// UpdateCollection replaces an existing collection's fields and membership.
// DateCreated is immutable.
func (s *Store) UpdateCollection(ctx context.Context, c catalog.Collection) error {
	c = c.Clone()
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return services.Wrap(services.ErrValidation, stage, "update collection", "collection name is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.collectionIndex(c.ID)
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, stage, "update collection", fmt.Sprintf("collection %s", c.ID), nil)
	}
	c.DateCreated = s.collections[idx].DateCreated
	c.MovieIDs = s.knownMovies(c.MovieIDs)
	if err := s.persistCollection(ctx, "update collection", c); err != nil {
		return err
	}
	s.collections[idx] = c
	return nil
}

// DeleteCollection removes a collection. Member movies are untouched and
// unknown ids are a no-op.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.collectionIndex(id)
	if idx < 0 {
		return nil
	}
	if s.persister != nil {
		if err := s.persister.Remove(ctx, id); err != nil {
			return services.Wrap(services.ErrInternal, stage, "delete collection", fmt.Sprintf("remove collection %s", id), err)
		}
	}
	s.collections = slices.Delete(s.collections, idx, idx+1)
	s.logger.Debug("collection deleted",
		logging.String(logging.FieldEventType, "collection_deleted"),
		logging.String("collection_id", id))
	return nil
}

// Collection returns a detached copy of the collection with id.
func (s *Store) Collection(id string) (catalog.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.collectionIndex(id)
	if idx < 0 {
		return catalog.Collection{}, false
	}
	return s.collections[idx].Clone(), true
}

// CollectionByName finds a collection by case-insensitive name.
func (s *Store) CollectionByName(name string) (catalog.Collection, bool) {
	name = strings.TrimSpace(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if strings.EqualFold(c.Name, name) {
			return c.Clone(), true
		}
	}
	return catalog.Collection{}, false
}

// Collections returns a point-in-time copy of every collection.
func (s *Store) Collections() []catalog.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.Clone())
	}
	return out
}

// AllCollections iterates a snapshot taken when AllCollections is called.
func (s *Store) AllCollections() iter.Seq[catalog.Collection] {
	return slices.Values(s.Collections())
}

// AddToCollection attaches a movie to a collection. Adding an existing member
// is a no-op.
func (s *Store) AddToCollection(ctx context.Context, collectionID, movieID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.membershipTargets("add to collection", collectionID, movieID)
	if err != nil {
		return err
	}
	if s.collections[idx].Contains(movieID) {
		return nil
	}
	c := s.collections[idx].Clone()
	c.MovieIDs = append(c.MovieIDs, movieID)
	if err := s.persistCollection(ctx, "add to collection", c); err != nil {
		return err
	}
	s.collections[idx] = c
	return nil
}

// RemoveFromCollection detaches a movie from a collection. Removing a
// non-member is a no-op.
func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, movieID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, stage, "remove from collection", fmt.Sprintf("collection %s", collectionID), nil)
	}
	if !s.collections[idx].Contains(movieID) {
		return nil
	}
	c := s.collections[idx].Clone()
	c.MovieIDs = slices.DeleteFunc(c.MovieIDs, func(id string) bool { return id == movieID })
	if err := s.persistCollection(ctx, "remove from collection", c); err != nil {
		return err
	}
	s.collections[idx] = c
	return nil
}

// MoviesInCollection returns detached copies of a collection's members in
// membership order.
func (s *Store) MoviesInCollection(collectionID string) ([]catalog.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, stage, "movies in collection", fmt.Sprintf("collection %s", collectionID), nil)
	}
	out := make([]catalog.Movie, 0, len(s.collections[idx].MovieIDs))
	for _, id := range s.collections[idx].MovieIDs {
		if mi := s.movieIndex(id); mi >= 0 {
			out = append(out, s.detachMovie(s.movies[mi]))
		}
	}
	return out, nil
}

// CollectionsForMovie returns copies of every collection containing movieID.
func (s *Store) CollectionsForMovie(movieID string) []catalog.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.Collection
	for _, c := range s.collections {
		if c.Contains(movieID) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// SeedDefaultCollectionsIfEmpty inserts the default genre collections when no
// collection exists and returns how many were added. It checks emptiness
// rather than first launch, so repeated calls are harmless.
func (s *Store) SeedDefaultCollectionsIfEmpty(ctx context.Context) (int, error) {
	s.mu.RLock()
	empty := len(s.collections) == 0
	s.mu.RUnlock()
	if !empty {
		return 0, nil
	}

	seeded := 0
	for _, c := range catalog.DefaultCollections(s.now()) {
		if err := s.InsertCollection(ctx, c); err != nil {
			return seeded, err
		}
		seeded++
	}
	s.logger.Info("seeded default collections",
		logging.String(logging.FieldEventType, "collections_seeded"),
		logging.Int("count", seeded))
	return seeded, nil
}

func (s *Store) membershipTargets(operation, collectionID, movieID string) (int, error) {
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return -1, services.Wrap(services.ErrNotFound, stage, operation, fmt.Sprintf("collection %s", collectionID), nil)
	}
	if s.movieIndex(movieID) < 0 {
		return -1, services.Wrap(services.ErrNotFound, stage, operation, fmt.Sprintf("movie %s", movieID), nil)
	}
	return idx, nil
}

func (s *Store) knownMovies(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.movieIndex(id) >= 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
