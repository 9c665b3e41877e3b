package catalog

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// UnknownTitle replaces missing or blank titles.
	UnknownTitle = "Unknown Movie"
	MinRating    = 1
	MaxRating    = 10
)

// ErrBarcodeAssigned is returned when a record already carries a barcode.
var ErrBarcodeAssigned = errors.New("barcode already assigned")

// Movie is the canonical local record for a title in the library. Optional
// metadata is nil when the source did not provide it.
type Movie struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Year       *int      `json:"year,omitempty"`
	Director   *string   `json:"director,omitempty"`
	Plot       *string   `json:"plot,omitempty"`
	Genre      *string   `json:"genre,omitempty"`
	Actors     *string   `json:"actors,omitempty"`
	Language   *string   `json:"language,omitempty"`
	Country    *string   `json:"country,omitempty"`
	Awards     *string   `json:"awards,omitempty"`
	Runtime    *string   `json:"runtime,omitempty"`
	IMDbID     *string   `json:"imdb_id,omitempty"`
	TMDBID     *int64    `json:"tmdb_id,omitempty"`
	PosterURL  *string   `json:"poster_url,omitempty"`
	PosterData []byte    `json:"-"`
	Barcode    *string   `json:"barcode,omitempty"`
	DateAdded  time.Time `json:"date_added"`
	IsWanted   bool      `json:"is_wanted"`
	UserRating *int      `json:"user_rating,omitempty"`

	// CollectionIDs is maintained by the store and reflects memberships at
	// snapshot time.
	CollectionIDs []string `json:"collection_ids,omitempty"`
}

// NewMovie returns a record with a fresh id and DateAdded set to now. A blank
// title becomes UnknownTitle.
func NewMovie(title string, now time.Time) Movie {
	return Movie{
		ID:        uuid.NewString(),
		Title:     TitleOrUnknown(title),
		DateAdded: now,
	}
}

// TitleOrUnknown trims title and substitutes UnknownTitle when it is empty.
func TitleOrUnknown(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return UnknownTitle
}

// ClampRating bounds a rating to [MinRating, MaxRating]. Nil stays nil.
func ClampRating(rating *int) *int {
	if rating == nil {
		return nil
	}
	v := min(max(*rating, MinRating), MaxRating)
	return &v
}

// AssignBarcode sets the barcode once. A second assignment fails.
func (m *Movie) AssignBarcode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("barcode must not be empty")
	}
	if m.Barcode != nil {
		return ErrBarcodeAssigned
	}
	m.Barcode = &code
	return nil
}

// SetRating stores a clamped rating; nil clears it.
func (m *Movie) SetRating(rating *int) {
	m.UserRating = ClampRating(rating)
}

// Clone returns a deep copy so callers can edit without touching shared state.
func (m Movie) Clone() Movie {
	out := m
	out.Year = clonePtr(m.Year)
	out.Director = clonePtr(m.Director)
	out.Plot = clonePtr(m.Plot)
	out.Genre = clonePtr(m.Genre)
	out.Actors = clonePtr(m.Actors)
	out.Language = clonePtr(m.Language)
	out.Country = clonePtr(m.Country)
	out.Awards = clonePtr(m.Awards)
	out.Runtime = clonePtr(m.Runtime)
	out.IMDbID = clonePtr(m.IMDbID)
	out.TMDBID = clonePtr(m.TMDBID)
	out.PosterURL = clonePtr(m.PosterURL)
	out.Barcode = clonePtr(m.Barcode)
	out.UserRating = clonePtr(m.UserRating)
	out.PosterData = slices.Clone(m.PosterData)
	out.CollectionIDs = slices.Clone(m.CollectionIDs)
	return out
}

// DisplayYear renders the year or "Unknown".
func (m Movie) DisplayYear() string {
	if m.Year == nil {
		return "Unknown"
	}
	return strconv.Itoa(*m.Year)
}

// DisplayGenre renders the genre or "Unknown".
func (m Movie) DisplayGenre() string {
	if m.Genre == nil || strings.TrimSpace(*m.Genre) == "" {
		return "Unknown"
	}
	return *m.Genre
}

// DisplayRating renders "n/10" or "Not Rated".
func (m Movie) DisplayRating() string {
	if m.UserRating == nil {
		return "Not Rated"
	}
	return strconv.Itoa(*m.UserRating) + "/10"
}

func (m Movie) HasLocalPoster() bool {
	return len(m.PosterData) > 0
}

// Str returns a pointer to a trimmed copy of s, or nil when s is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Value dereferences p or returns the zero value.
func Value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
