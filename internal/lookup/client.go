package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"moviecase/internal/config"
	"moviecase/internal/logging"
	"moviecase/internal/lookup/httpjson"
	"moviecase/internal/lookup/omdb"
	"moviecase/internal/lookup/tmdb"
	"moviecase/internal/lookup/upc"
	"moviecase/internal/services"
)

// Client bundles the external metadata providers: TMDB for popular lists and
// search, OMDb for single-title lookups, and UPCitemdb for barcodes.
type Client struct {
	TMDB   *tmdb.Client
	OMDb   *omdb.Client
	UPC    *upc.Client
	logger *slog.Logger
}

// New assembles a Client from already-built provider clients.
func New(tmdbClient *tmdb.Client, omdbClient *omdb.Client, barcodeClient *upc.Client, logger *slog.Logger) *Client {
	return &Client{
		TMDB:   tmdbClient,
		OMDb:   omdbClient,
		UPC:    barcodeClient,
		logger: logging.NewComponentLogger(logger, "lookup"),
	}
}

// NewFromConfig builds every provider with a shared timeout and a rate limiter
// per provider.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Lookup.RequestTimeoutSeconds) * time.Second}
	limiter := func() *rate.Limiter { return httpjson.NewLimiter(cfg.Lookup.RequestsPerSecond, cfg.Lookup.Burst) }

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(httpClient),
		tmdb.WithRateLimiter(limiter()),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	omdbClient := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL,
		omdb.WithHTTPClient(httpClient),
		omdb.WithRateLimiter(limiter()),
	)
	barcodeClient := upc.New(cfg.Barcode.BaseURL, cfg.Barcode.UserKey,
		upc.WithHTTPClient(httpClient),
		upc.WithRateLimiter(limiter()),
	)
	return New(tmdbClient, omdbClient, barcodeClient, logger), nil
}

// Popular returns provider A's popular list.
func (c *Client) Popular(ctx context.Context, page int) ([]tmdb.Result, error) {
	if c.TMDB == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "tmdb", "popular", "client not configured", nil)
	}
	resp, err := c.TMDB.Popular(ctx, page)
	if err != nil {
		c.logFailure(ctx, "tmdb popular failed", err)
		return nil, err
	}
	return resp.Results, nil
}

// Search runs a free-text movie search on provider A.
func (c *Client) Search(ctx context.Context, query string, page int) ([]tmdb.Result, error) {
	if c.TMDB == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "tmdb", "search", "client not configured", nil)
	}
	resp, err := c.TMDB.SearchMovie(ctx, query, page)
	if err != nil {
		c.logFailure(ctx, "tmdb search failed", err, logging.String("query", query))
		return nil, err
	}
	return resp.Results, nil
}

// Details fetches provider A details (with credits) for a TMDB id.
func (c *Client) Details(ctx context.Context, id int64) (*tmdb.Details, error) {
	if c.TMDB == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "tmdb", "details", "client not configured", nil)
	}
	details, err := c.TMDB.MovieDetails(ctx, id)
	if err != nil {
		c.logFailure(ctx, "tmdb details failed", err, logging.Int64("tmdb_id", id))
		return nil, err
	}
	return details, nil
}

// ByTitle looks up a single title on provider B.
func (c *Client) ByTitle(ctx context.Context, title string) (*omdb.Title, error) {
	if c.OMDb == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "omdb", "title", "client not configured", nil)
	}
	result, err := c.OMDb.ByTitle(ctx, title)
	if err != nil {
		c.logFailure(ctx, "omdb title lookup failed", err, logging.String("title", title))
		return nil, err
	}
	return result, nil
}

// ByIMDbID looks up a single title on provider B by external reference.
func (c *Client) ByIMDbID(ctx context.Context, imdbID string) (*omdb.Title, error) {
	if c.OMDb == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "omdb", "imdb_id", "client not configured", nil)
	}
	result, err := c.OMDb.ByIMDbID(ctx, imdbID)
	if err != nil {
		c.logFailure(ctx, "omdb id lookup failed", err, logging.String("imdb_id", imdbID))
		return nil, err
	}
	return result, nil
}

// Barcode resolves a barcode to retail product listings.
func (c *Client) Barcode(ctx context.Context, code string) ([]upc.Item, error) {
	if c.UPC == nil {
		return nil, services.Wrap(services.ErrNotConfigured, "upc", "lookup", "client not configured", nil)
	}
	items, err := c.UPC.Lookup(ctx, code)
	if err != nil {
		c.logFailure(ctx, "barcode lookup failed", err, logging.String("barcode", code))
		return nil, err
	}
	return items, nil
}

func (c *Client) logFailure(ctx context.Context, msg string, err error, attrs ...logging.Attr) {
	attrs = append(attrs, logging.ErrorAttrs(err)...)
	logging.WithContext(ctx, c.logger).Debug(msg, logging.Args(attrs...)...)
}
