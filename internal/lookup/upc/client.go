package upc

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"moviecase/internal/lookup/httpjson"
	"moviecase/internal/services"
)

// DefaultBaseURL is the keyless UPCitemdb trial endpoint.
const DefaultBaseURL = "https://api.upcitemdb.com/prod/trial"

// Item is a single product match.
type Item struct {
	EAN         string   `json:"ean"`
	UPC         string   `json:"upc"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// Response is the UPCitemdb lookup payload.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Total   int    `json:"total"`
	Items   []Item `json:"items"`
}

// Client resolves barcodes to retail product titles.
type Client struct {
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

// New creates a barcode client. userKey is optional; when set it is sent in
// the user_key header used by the paid endpoint.
func New(baseURL, userKey string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	header := http.Header{}
	if key := strings.TrimSpace(userKey); key != "" {
		header.Set("user_key", key)
		header.Set("key_type", "3scale")
	}
	client := &Client{
		baseURL: baseURL,
		requester: httpjson.Requester{
			Provider: "upc",
			HTTP:     &http.Client{Timeout: 10 * time.Second},
			Header:   header,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Lookup returns product matches for code. No matches is services.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, code string) ([]Item, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, services.Wrap(services.ErrValidation, "upc", "lookup", "barcode must contain digits", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/lookup")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "upc", "lookup", "parse url", err)
	}
	endpoint.RawQuery = url.Values{"upc": {code}}.Encode()

	var payload Response
	if err := c.requester.GetJSON(ctx, "lookup", endpoint.String(), &payload); err != nil {
		return nil, err
	}
	switch strings.ToUpper(strings.TrimSpace(payload.Code)) {
	case "OK":
	case "INVALID_UPC":
		return nil, services.Wrap(services.ErrValidation, "upc", "lookup", "invalid barcode "+code, nil)
	default:
		return nil, services.Wrap(services.ErrInvalidResponse, "upc", "lookup", "unexpected code "+payload.Code, nil)
	}
	items := make([]Item, 0, len(payload.Items))
	for _, item := range payload.Items {
		if strings.TrimSpace(item.Title) != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "upc", "lookup", "no product for barcode "+code, nil)
	}
	return items, nil
}

// NormalizeCode strips everything but digits (scanners sometimes add spaces or dashes).
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
