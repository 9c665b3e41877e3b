// Package httpjson issues rate-limited GET requests against JSON provider APIs
// and classifies failures with the services error markers.
package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"moviecase/internal/services"
)

const maxErrorBody = 512

// Requester performs GET requests for a single provider.
type Requester struct {
	Provider string
	HTTP     *http.Client
	Limiter  *rate.Limiter
	Header   http.Header
}

// NewLimiter returns a token bucket limiter, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// GetJSON fetches endpoint and decodes the body into out. Errors carry one of
// ErrNetwork, ErrNotFound, ErrNotConfigured, ErrValidation, or ErrInvalidResponse.
func (r *Requester) GetJSON(ctx context.Context, operation, endpoint string, out any) error {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return services.Wrap(services.ErrNetwork, r.Provider, operation, "rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, r.Provider, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return services.Wrap(services.ErrNetwork, r.Provider, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency)
		if len(snippet) > 0 {
			msg += ": " + string(snippet)
		}
		return services.Wrap(StatusMarker(resp.StatusCode), r.Provider, operation, msg, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrInvalidResponse, r.Provider, operation, "decode response", err)
	}
	return nil
}

// StatusMarker maps a non-200 HTTP status to an error marker.
func StatusMarker(status int) error {
	switch status {
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrNotConfigured
	case http.StatusBadRequest:
		return services.ErrValidation
	default:
		return services.ErrNetwork
	}
}
