package main

import (
	"fmt"
	"strconv"
	"strings"

	"moviecase/internal/catalog"
	"moviecase/internal/library"
	"moviecase/internal/lookup/tmdb"
	"moviecase/internal/services"
)

const (
	shortIDLength   = 8
	minIDPrefixSize = 4
)

// resolveMovie accepts a full id or a unique prefix of at least four characters.
func resolveMovie(lib *library.Store, ref string) (catalog.Movie, error) {
	ref = strings.TrimSpace(ref)
	if movie, ok := lib.Movie(ref); ok {
		return movie, nil
	}
	if len(ref) >= minIDPrefixSize {
		var matches []catalog.Movie
		for movie := range lib.AllMovies() {
			if strings.HasPrefix(movie.ID, ref) {
				matches = append(matches, movie)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return catalog.Movie{}, services.Wrap(services.ErrValidation, "cli", "resolve movie",
				fmt.Sprintf("id prefix %q matches %d movies", ref, len(matches)), nil)
		}
	}
	return catalog.Movie{}, services.Wrap(services.ErrNotFound, "cli", "resolve movie",
		fmt.Sprintf("no movie with id %q", ref), nil)
}

// resolveCollection accepts an id, a unique id prefix, or a case-insensitive name.
func resolveCollection(lib *library.Store, ref string) (catalog.Collection, error) {
	ref = strings.TrimSpace(ref)
	if c, ok := lib.Collection(ref); ok {
		return c, nil
	}
	if c, ok := lib.CollectionByName(ref); ok {
		return c, nil
	}
	if len(ref) >= minIDPrefixSize {
		var found []catalog.Collection
		for c := range lib.AllCollections() {
			if strings.HasPrefix(c.ID, ref) {
				found = append(found, c)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
	}
	return catalog.Collection{}, services.Wrap(services.ErrNotFound, "cli", "resolve collection",
		fmt.Sprintf("no collection named or identified by %q", ref), nil)
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func movieStatus(m catalog.Movie) string {
	if m.IsWanted {
		return "Wanted"
	}
	return "Collected"
}

func movieRows(movies []catalog.Movie) [][]string {
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []string{
			shortID(m.ID),
			m.Title,
			m.DisplayYear(),
			m.DisplayGenre(),
			m.DisplayRating(),
			movieStatus(m),
		})
	}
	return rows
}

func renderMovieList(movies []catalog.Movie) string {
	return renderTable(
		[]string{"ID", "Title", "Year", "Genre", "Rating", "Status"},
		movieRows(movies),
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
}

func renderMovieDetail(m catalog.Movie, collections []catalog.Collection) string {
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	poster := "not cached"
	if m.HasLocalPoster() {
		poster = fmt.Sprintf("cached (%d bytes)", len(m.PosterData))
	}
	pairs := [][2]string{
		{"ID", m.ID},
		{"Title", m.Title},
		{"Year", m.DisplayYear()},
		{"Status", movieStatus(m)},
		{"Rating", m.DisplayRating()},
		{"Genre", m.DisplayGenre()},
		{"Director", orDash(m.Director)},
		{"Actors", orDash(m.Actors)},
		{"Runtime", orDash(m.Runtime)},
		{"Language", orDash(m.Language)},
		{"Country", orDash(m.Country)},
		{"Awards", orDash(m.Awards)},
		{"IMDb", orDash(m.IMDbID)},
		{"TMDB", tmdbIDText(m.TMDBID)},
		{"Barcode", orDash(m.Barcode)},
		{"Poster", poster},
		{"Collections", strings.Join(names, ", ")},
		{"Added", m.DateAdded.Local().Format("2006-01-02 15:04")},
		{"Plot", orDash(m.Plot)},
	}
	return renderDetail(pairs)
}

func renderSearchResults(results []tmdb.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		year := "-"
		if len(r.ReleaseDate) >= 4 {
			year = r.ReleaseDate[:4]
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			year,
			strconv.FormatFloat(r.VoteAverage, 'f', 1, 64),
		})
	}
	return renderTable(
		[]string{"TMDB ID", "Title", "Year", "Votes"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	)
}

func orDash(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "-"
	}
	return *value
}

func tmdbIDText(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
