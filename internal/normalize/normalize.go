package normalize

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"moviecase/internal/catalog"
	"moviecase/internal/lookup/omdb"
	"moviecase/internal/lookup/tmdb"
)

// notAvailable is OMDb's placeholder for absent values.
const notAvailable = "N/A"

const maxCastNames = 5

// Normalizer converts provider payloads into catalog records. The zero value
// is ready to use; Now, NewID, and ImageBaseURL can be overridden in tests.
type Normalizer struct {
	Now          func() time.Time
	NewID        func() string
	ImageBaseURL string
}

// FromSummary converts a TMDB search or popular-list entry.
func (n Normalizer) FromSummary(r tmdb.Result, isWanted bool) catalog.Movie {
	m := n.base(r.Title, isWanted)
	m.Year = ParseYear(r.ReleaseDate)
	m.Plot = Field(r.Overview)
	m.PosterURL = n.posterURL(r.PosterPath)
	if r.ID > 0 {
		id := r.ID
		m.TMDBID = &id
	}
	return m
}

// FromDetails converts a TMDB details payload, filling credits and genres that
// summaries lack.
func (n Normalizer) FromDetails(d tmdb.Details, isWanted bool) catalog.Movie {
	m := n.FromSummary(d.Result, isWanted)
	m.Genre = joined(d.GenreNames())
	m.Director = joined(d.Directors())
	m.Actors = joined(d.TopCast(maxCastNames))
	m.Language = joined(d.LanguageNames())
	m.Country = joined(d.CountryNames())
	m.IMDbID = Field(d.IMDbID)
	if d.Runtime > 0 {
		m.Runtime = catalog.Str(strconv.Itoa(d.Runtime) + " min")
	}
	return m
}

// FromTitle converts an OMDb single-title payload. "N/A" values become absent.
func (n Normalizer) FromTitle(t omdb.Title, isWanted bool) catalog.Movie {
	m := n.base(catalog.Value(Field(t.Title)), isWanted)
	m.Year = ParseYear(t.Year)
	m.Director = Field(t.Director)
	m.Plot = Field(t.Plot)
	m.Genre = Field(t.Genre)
	m.Actors = Field(t.Actors)
	m.Language = Field(t.Language)
	m.Country = Field(t.Country)
	m.Awards = Field(t.Awards)
	m.Runtime = Field(t.Runtime)
	m.IMDbID = Field(t.IMDbID)
	m.PosterURL = Field(t.Poster)
	return m
}

// FromBarcode builds the placeholder record used when a barcode is saved
// without resolved metadata.
func (n Normalizer) FromBarcode(code string, isWanted bool) catalog.Movie {
	code = strings.TrimSpace(code)
	m := n.base(catalog.UnknownTitle, isWanted)
	m.Plot = catalog.Str("Movie added via barcode scan: " + code)
	if code != "" {
		_ = m.AssignBarcode(code)
	}
	return m
}

func (n Normalizer) base(title string, isWanted bool) catalog.Movie {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	m := catalog.NewMovie(title, now())
	if n.NewID != nil {
		m.ID = n.NewID()
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.IsWanted = isWanted
	return m
}

func (n Normalizer) posterURL(path string) *string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return &path
	}
	base := strings.TrimRight(n.ImageBaseURL, "/")
	if base == "" {
		base = tmdb.DefaultImageBaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return catalog.Str(base + path)
}

// Field trims s and maps empty strings and the "N/A" sentinel to nil.
func Field(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, notAvailable) {
		return nil
	}
	return &s
}

// ParseYear reads the leading run of digits ("2010", "2010-07-15", "2010–2014").
// Anything without a positive leading number yields nil.
func ParseYear(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

func joined(values []string) *string {
	return catalog.Str(strings.Join(values, ", "))
}

// PosterFetcher is the slice of the poster cache the normalizer needs.
type PosterFetcher interface {
	FetchAndCache(ctx context.Context, url string) []byte
}

// FetchPosterBytes downloads (or reads from cache) the poster for m and stores
// the bytes on the record. It reports whether bytes were attached; failures are
// never errors.
func FetchPosterBytes(ctx context.Context, posters PosterFetcher, m *catalog.Movie) bool {
	if posters == nil || m == nil || m.PosterURL == nil {
		return false
	}
	data := posters.FetchAndCache(ctx, *m.PosterURL)
	if len(data) == 0 {
		return false
	}
	m.PosterData = data
	return true
}
