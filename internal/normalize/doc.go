// Package normalize maps TMDB, OMDb, and barcode inputs onto catalog.Movie.
//
// Normalization never fails: missing titles become "Unknown Movie", the "N/A"
// sentinel and blank strings become absent fields, and years are taken from the
// leading number of whatever date string the provider returns. Every record
// gets a fresh local id; provider ids are kept only as cross-references.
package normalize
