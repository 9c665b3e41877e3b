// Package lookup is the single entry point for remote metadata: popular lists
// and search (TMDB), single-title lookups (OMDb), and barcode resolution
// (UPCitemdb).
//
// Lookups are plain blocking calls taking a context. Callers that want to keep
// working while a lookup is in flight use Go to run it on a goroutine and
// Generation to discard completions that a newer request has superseded.
package lookup
