// Package tmdb is a small client for The Movie Database v3 API covering movie
// search, the popular list, and movie details with credits.
package tmdb
