package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"moviecase/internal/catalog"
	"moviecase/internal/services"
)

// Filter selects a subset of the library.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCollected Filter = "collected"
	FilterWanted    Filter = "wanted"
	FilterRated     Filter = "rated"
)

// Sort orders the library.
type Sort string

const (
	SortDateAdded Sort = "dateAdded"
	SortTitle     Sort = "title"
	SortYear      Sort = "year"
	SortRating    Sort = "rating"
)

// Params describe one library view. The zero value lists everything newest
// first.
type Params struct {
	Search string
	Filter Filter
	Sort   Sort
}

// Apply searches, filters, and sorts records into a new slice. The input is
// never modified and equal sort keys keep their input order.
func Apply(records []catalog.Movie, p Params) []catalog.Movie {
	out := make([]catalog.Movie, 0, len(records))
	match := matcher(p.Search)
	for _, m := range records {
		if match(m) && keep(p.Filter, m) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, comparator(p.Sort))
	return out
}

func matcher(search string) func(catalog.Movie) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return func(catalog.Movie) bool { return true }
	}
	fold := cases.Fold()
	needle := fold.String(search)
	contains := func(s *string) bool {
		return s != nil && strings.Contains(fold.String(*s), needle)
	}
	return func(m catalog.Movie) bool {
		return contains(&m.Title) || contains(m.Director) || contains(m.Genre) || contains(m.Actors)
	}
}

func keep(f Filter, m catalog.Movie) bool {
	switch f {
	case FilterCollected:
		return !m.IsWanted
	case FilterWanted:
		return m.IsWanted
	case FilterRated:
		return m.UserRating != nil
	default:
		return true
	}
}

func comparator(s Sort) func(a, b catalog.Movie) int {
	switch s {
	case SortTitle:
		return func(a, b catalog.Movie) int { return strings.Compare(a.Title, b.Title) }
	case SortYear:
		return func(a, b catalog.Movie) int { return cmp.Compare(catalog.Value(b.Year), catalog.Value(a.Year)) }
	case SortRating:
		return func(a, b catalog.Movie) int {
			return cmp.Compare(catalog.Value(b.UserRating), catalog.Value(a.UserRating))
		}
	default:
		return func(a, b catalog.Movie) int { return b.DateAdded.Compare(a.DateAdded) }
	}
}

// ParseFilter accepts the CLI spelling of a filter. Empty means all.
func ParseFilter(value string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return FilterAll, nil
	case "collected", "owned":
		return FilterCollected, nil
	case "wanted", "wishlist":
		return FilterWanted, nil
	case "rated":
		return FilterRated, nil
	default:
		return "", services.Wrap(services.ErrValidation, "query", "parse filter",
			fmt.Sprintf("unknown filter %q (want all, collected, wanted, rated)", value), nil)
	}
}

// ParseSort accepts the CLI spelling of a sort key. Empty means dateAdded.
func ParseSort(value string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dateadded", "date", "date_added", "added":
		return SortDateAdded, nil
	case "title":
		return SortTitle, nil
	case "year":
		return SortYear, nil
	case "rating":
		return SortRating, nil
	default:
		return "", services.Wrap(services.ErrValidation, "query", "parse sort",
			fmt.Sprintf("unknown sort %q (want dateAdded, title, year, rating)", value), nil)
	}
}

// Stats summarizes a set of records.
type Stats struct {
	Total     int `json:"total"`
	Collected int `json:"collected"`
	Wanted    int `json:"wanted"`
	Rated     int `json:"rated"`
}

// Summarize counts records per filter.
func Summarize(records []catalog.Movie) Stats {
	var s Stats
	for _, m := range records {
		s.Total++
		if m.IsWanted {
			s.Wanted++
		} else {
			s.Collected++
		}
		if m.UserRating != nil {
			s.Rated++
		}
	}
	return s
}
