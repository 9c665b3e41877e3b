// Package ingest wires lookup, normalization, the poster cache, and the
// library together into the add-a-movie workflows: from a TMDB result, by
// title or IMDb id, by barcode scan, as a barcode placeholder, or by hand.
//
// Provider errors pass through with their classification intact, so callers
// can still test them with errors.Is against the services sentinels.
package ingest
