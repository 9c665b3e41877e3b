package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"
)

// probeIMDbID is a stable title used to exercise OMDb authentication.
const probeIMDbID = "tt0133093"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase pings the library database.
func CheckDatabase(ctx context.Context, db Pinger, remote bool) Result {
	const name = "Library database"
	if db == nil {
		return Result{Name: name, Detail: "not opened"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := db.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if remote {
		return Result{Name: name, Passed: true, Detail: "remote libsql reachable"}
	}
	return Result{Name: name, Passed: true, Detail: "local sqlite ok"}
}

// CheckTMDB verifies TMDB connectivity and the API key with the lightweight
// /configuration endpoint.
func CheckTMDB(ctx context.Context, client *http.Client, baseURL, apiKey string) Result {
	const name = "TMDB"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "api key missing"}
	}
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/configuration?" +
		url.Values{"api_key": {strings.TrimSpace(apiKey)}}.Encode()

	status, _, err := probe(ctx, client, endpoint)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	switch status {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %d", status)}
	}
}

// CheckOMDb verifies OMDb connectivity and the API key by resolving a known
// IMDb id.
func CheckOMDb(ctx context.Context, client *http.Client, baseURL, apiKey string) Result {
	const name = "OMDb"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "api key missing"}
	}
	endpoint := strings.TrimSpace(baseURL) + "?" +
		url.Values{"apikey": {strings.TrimSpace(apiKey)}, "i": {probeIMDbID}}.Encode()

	status, body, err := probe(ctx, client, endpoint)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if status == http.StatusUnauthorized {
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	}
	if status != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %d", status)}
	}
	var payload struct {
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{Name: name, Detail: "invalid response body"}
	}
	if !strings.EqualFold(payload.Response, "true") {
		return Result{Name: name, Detail: fmt.Sprintf("lookup failed (%s)", payload.Error)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckRedis verifies the Redis poster tier answers PING.
func CheckRedis(ctx context.Context, redisURL string) Result {
	const name = "Redis poster cache"
	if strings.TrimSpace(redisURL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err)}
	}
	client := redis.NewClient(opts)
	defer client.Close()

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := client.Ping(checkCtx).Err(); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

func probe(ctx context.Context, client *http.Client, endpoint string) (int, []byte, error) {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// summarizeError produces a human-readable summary for check failures. The
// request URL is dropped because it carries the API key.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (unreachable)"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("request failed (%v)", urlErr.Err)
	}
	return err.Error()
}
