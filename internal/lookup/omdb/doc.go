// Package omdb is a client for the OMDb API single-title endpoint, looked up
// either by title or by IMDb id. A negative Response flag is reported as
// services.ErrNotFound.
package omdb
