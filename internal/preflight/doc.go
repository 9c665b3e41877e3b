// Package preflight provides readiness checks for the directories, database,
// and external providers moviecase depends on.
//
// The CLI "moviecase doctor" command runs RunAll and renders each Result as a
// status line. Provider checks make one real request with a short timeout and
// no retries, so a slow provider is reported rather than waited on.
//
// Checks for optional features are gated by config: the Redis check only runs
// when poster_cache.backend is "redis".
package preflight
