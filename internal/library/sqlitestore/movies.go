package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"moviecase/internal/catalog"
)

const movieColumns = "id, title, year, director, plot, genre, actors, language, country, awards, runtime, imdb_id, tmdb_id, poster_url, poster_data, barcode, date_added, is_wanted, user_rating"

// LoadAll reads every movie and collection in insertion order, with
// collection membership in stored position order.
func (s *Store) LoadAll(ctx context.Context) ([]catalog.Movie, []catalog.Collection, error) {
	movies, err := s.loadMovies(ctx)
	if err != nil {
		return nil, nil, err
	}
	collections, err := s.loadCollections(ctx)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.loadMemberships(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range collections {
		collections[i].MovieIDs = members[collections[i].ID]
		if collections[i].MovieIDs == nil {
			collections[i].MovieIDs = []string{}
		}
	}
	return movies, collections, nil
}

func (s *Store) loadMovies(ctx context.Context) ([]catalog.Movie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []catalog.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func (s *Store) loadCollections(ctx context.Context) ([]catalog.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, date_created, color, icon FROM collections ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var collections []catalog.Collection
	for rows.Next() {
		var (
			c           catalog.Collection
			description sql.NullString
			createdRaw  string
			color       sql.NullString
			icon        sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &description, &createdRaw, &color, &icon); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Description = fromNullString(description)
		c.Color = fromNullString(color)
		c.Icon = fromNullString(icon)
		if created, err := parseTimeString(createdRaw); err == nil {
			c.DateCreated = created
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return collections, nil
}

func (s *Store) loadMemberships(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT collection_id, movie_id FROM collection_movies ORDER BY collection_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var collectionID, movieID string
		if err := rows.Scan(&collectionID, &movieID); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members[collectionID] = append(members[collectionID], movieID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return members, nil
}

// PersistMovie inserts or replaces a movie row. Membership lives with the
// collection and is not written here.
func (s *Store) PersistMovie(ctx context.Context, m catalog.Movie) error {
	err := s.execWithRetry(ctx,
		`INSERT INTO movies (`+movieColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             title = excluded.title, year = excluded.year, director = excluded.director,
             plot = excluded.plot, genre = excluded.genre, actors = excluded.actors,
             language = excluded.language, country = excluded.country, awards = excluded.awards,
             runtime = excluded.runtime, imdb_id = excluded.imdb_id, tmdb_id = excluded.tmdb_id,
             poster_url = excluded.poster_url, poster_data = excluded.poster_data,
             barcode = excluded.barcode, is_wanted = excluded.is_wanted,
             user_rating = excluded.user_rating`,
		m.ID,
		m.Title,
		nullableInt(m.Year),
		nullableString(m.Director),
		nullableString(m.Plot),
		nullableString(m.Genre),
		nullableString(m.Actors),
		nullableString(m.Language),
		nullableString(m.Country),
		nullableString(m.Awards),
		nullableString(m.Runtime),
		nullableString(m.IMDbID),
		nullableInt64(m.TMDBID),
		nullableString(m.PosterURL),
		nullableBlob(m.PosterData),
		nullableString(m.Barcode),
		formatTime(m.DateAdded),
		boolToInt(m.IsWanted),
		nullableInt(m.UserRating),
	)
	if err != nil {
		return fmt.Errorf("persist movie: %w", err)
	}
	return nil
}

// PersistCollection inserts or replaces a collection and rewrites its
// membership rows in MovieIDs order.
func (s *Store) PersistCollection(ctx context.Context, c catalog.Collection) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (id, name, description, date_created, color, icon)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 name = excluded.name, description = excluded.description,
                 color = excluded.color, icon = excluded.icon`,
			c.ID, c.Name, nullableString(c.Description), formatTime(c.DateCreated),
			nullableString(c.Color), nullableString(c.Icon),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_movies WHERE collection_id = ?`, c.ID); err != nil {
			return err
		}
		for pos, movieID := range c.MovieIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO collection_movies (collection_id, movie_id, position) VALUES (?, ?, ?)`,
				c.ID, movieID, pos,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist collection: %w", err)
	}
	return nil
}

// Remove deletes the movie or collection with id together with its
// membership rows. Unknown ids are not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM collection_movies WHERE movie_id = ? OR collection_id = ?`,
			`DELETE FROM movies WHERE id = ?`,
			`DELETE FROM collections WHERE id = ?`,
		}
		for i, stmt := range stmts {
			args := []any{id}
			if i == 0 {
				args = append(args, id)
			}
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func scanMovie(scanner interface{ Scan(dest ...any) error }) (catalog.Movie, error) {
	var (
		m          catalog.Movie
		year       sql.NullInt64
		director   sql.NullString
		plot       sql.NullString
		genre      sql.NullString
		actors     sql.NullString
		language   sql.NullString
		country    sql.NullString
		awards     sql.NullString
		runtime    sql.NullString
		imdbID     sql.NullString
		tmdbID     sql.NullInt64
		posterURL  sql.NullString
		posterData []byte
		barcode    sql.NullString
		addedRaw   string
		isWanted   int64
		rating     sql.NullInt64
	)
	if err := scanner.Scan(
		&m.ID, &m.Title, &year, &director, &plot, &genre, &actors, &language,
		&country, &awards, &runtime, &imdbID, &tmdbID, &posterURL, &posterData,
		&barcode, &addedRaw, &isWanted, &rating,
	); err != nil {
		return catalog.Movie{}, err
	}
	m.Year = fromNullInt(year)
	m.Director = fromNullString(director)
	m.Plot = fromNullString(plot)
	m.Genre = fromNullString(genre)
	m.Actors = fromNullString(actors)
	m.Language = fromNullString(language)
	m.Country = fromNullString(country)
	m.Awards = fromNullString(awards)
	m.Runtime = fromNullString(runtime)
	m.IMDbID = fromNullString(imdbID)
	if tmdbID.Valid {
		v := tmdbID.Int64
		m.TMDBID = &v
	}
	m.PosterURL = fromNullString(posterURL)
	if len(posterData) > 0 {
		m.PosterData = posterData
	}
	m.Barcode = fromNullString(barcode)
	m.IsWanted = isWanted != 0
	m.UserRating = catalog.ClampRating(fromNullInt(rating))
	if added, err := parseTimeString(addedRaw); err == nil {
		m.DateAdded = added
	}
	return m, nil
}
