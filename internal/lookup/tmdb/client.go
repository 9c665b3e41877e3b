package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"moviecase/internal/lookup/httpjson"
	"moviecase/internal/services"
)

// Result represents a single TMDB movie summary from search or popular lists.
type Result struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// Response models the TMDB paginated list response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type named struct {
	Name string `json:"name"`
}

// Details is the /movie/{id} payload with credits appended.
type Details struct {
	Result
	IMDbID              string  `json:"imdb_id"`
	Runtime             int     `json:"runtime"`
	Genres              []named `json:"genres"`
	SpokenLanguages     []named `json:"spoken_languages"`
	ProductionCountries []named `json:"production_countries"`
	Credits             struct {
		Cast []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// GenreNames returns genre names in payload order.
func (d Details) GenreNames() []string { return names(d.Genres) }

// LanguageNames returns spoken language names in payload order.
func (d Details) LanguageNames() []string { return names(d.SpokenLanguages) }

// CountryNames returns production country names in payload order.
func (d Details) CountryNames() []string { return names(d.ProductionCountries) }

// Directors returns crew members credited as Director.
func (d Details) Directors() []string {
	var out []string
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" && strings.TrimSpace(member.Name) != "" {
			out = append(out, member.Name)
		}
	}
	return out
}

// TopCast returns up to limit cast names in billing order.
func (d Details) TopCast(limit int) []string {
	out := make([]string, 0, limit)
	for _, member := range d.Credits.Cast {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(member.Name) != "" {
			out = append(out, member.Name)
		}
	}
	return out
}

func names(values []named) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v.Name) != "" {
			out = append(out, v.Name)
		}
	}
	return out
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	requester    httpjson.Requester
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.requester.HTTP = client
		}
	}
}

// WithRateLimiter throttles outgoing requests.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.requester.Limiter = limiter
	}
}

// WithImageBaseURL overrides the poster image base (e.g. .../t/p/w500).
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.imageBaseURL = strings.TrimRight(base, "/")
		}
	}
}

// New creates a TMDB client. An empty apiKey is allowed; every call then fails
// with services.ErrNotConfigured without touching the network.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: DefaultImageBaseURL,
		language:     strings.TrimSpace(language),
		requester: httpjson.Requester{
			Provider: "tmdb",
			HTTP:     &http.Client{Timeout: 10 * time.Second},
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DefaultImageBaseURL is the w500 poster rendition base.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// PosterURL joins a poster path onto the image base; empty paths yield "".
func (c *Client) PosterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	base := DefaultImageBaseURL
	if c != nil && c.imageBaseURL != "" {
		base = c.imageBaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// SearchMovie searches TMDB for the supplied title. Pages start at 1.
func (c *Client) SearchMovie(ctx context.Context, query string, page int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	var payload Response
	if err := c.get(ctx, "search", "/search/movie", page, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Popular returns the current popular movie list.
func (c *Client) Popular(ctx context.Context, page int) (*Response, error) {
	var payload Response
	if err := c.get(ctx, "popular", "/movie/popular", page, url.Values{}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches a single movie including credits.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "details", "movie id must be positive", nil)
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")
	var payload Details
	if err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(movieID, 10), 0, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, page int, params url.Values, out any) error {
	if !c.Configured() {
		return services.Wrap(services.ErrNotConfigured, "tmdb", operation, "api key missing", nil)
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "tmdb", operation, "parse url", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	endpoint.RawQuery = params.Encode()
	return c.requester.GetJSON(ctx, operation, endpoint.String(), out)
}
