package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"moviecase/internal/lookup/httpjson"
	"moviecase/internal/services"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com/"

// Title is the OMDb single-title payload. Absent values arrive as "N/A".
type Title struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Client looks up single titles on OMDb.
type Client struct {
	apiKey    string
	baseURL   string
	requester httpjson.Requester
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

// New creates an OMDb client. An empty baseURL uses DefaultBaseURL; an empty
// apiKey makes every lookup fail with services.ErrNotConfigured.
func New(apiKey, baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		requester: httpjson.Requester{
			Provider: "omdb",
			HTTP:     &http.Client{Timeout: 10 * time.Second},
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// ByTitle looks up the best match for title.
func (c *Client) ByTitle(ctx context.Context, title string) (*Title, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "omdb", "title", "title must not be empty", nil)
	}
	return c.lookup(ctx, "title", "t", title)
}

// ByIMDbID looks up a title by its IMDb identifier (tt...).
func (c *Client) ByIMDbID(ctx context.Context, imdbID string) (*Title, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, services.Wrap(services.ErrValidation, "omdb", "imdb_id", "imdb id must not be empty", nil)
	}
	return c.lookup(ctx, "imdb_id", "i", imdbID)
}

func (c *Client) lookup(ctx context.Context, operation, param, value string) (*Title, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrNotConfigured, "omdb", operation, "api key missing", nil)
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "omdb", operation, "parse url", err)
	}
	params := endpoint.Query()
	params.Set("apikey", c.apiKey)
	params.Set(param, value)
	params.Set("plot", "full")
	endpoint.RawQuery = params.Encode()

	var payload Title
	if err := c.requester.GetJSON(ctx, operation, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	if strings.EqualFold(payload.Response, "False") {
		msg := strings.TrimSpace(payload.Error)
		if msg == "" {
			msg = "movie not found"
		}
		return nil, services.Wrap(services.ErrNotFound, "omdb", operation, msg, nil)
	}
	if !strings.EqualFold(payload.Response, "True") {
		return nil, services.Wrap(services.ErrInvalidResponse, "omdb", operation, "missing Response flag", errors.New(payload.Response))
	}
	return &payload, nil
}
