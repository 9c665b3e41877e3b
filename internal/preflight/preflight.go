package preflight

import (
	"context"
	"net/http"
	"time"

	"moviecase/internal/config"
)

const checkTimeout = 5 * time.Second

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Pinger is satisfied by the library database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes every applicable check for cfg. db may be nil when the
// database could not be opened; the database check then fails.
func RunAll(ctx context.Context, cfg *config.Config, db Pinger) []Result {
	if cfg == nil {
		return nil
	}
	client := &http.Client{Timeout: checkTimeout}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDatabase(ctx, db, cfg.IsRemoteDatabase()),
		CheckTMDB(ctx, client, cfg.TMDB.BaseURL, cfg.TMDB.APIKey),
		CheckOMDb(ctx, client, cfg.OMDb.BaseURL, cfg.OMDb.APIKey),
	}

	if cfg.PosterCache.Backend == config.PosterBackendRedis {
		results = append(results, CheckRedis(ctx, cfg.PosterCache.RedisURL))
	}

	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
