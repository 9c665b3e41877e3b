// Package query implements the library view: free-text search over title,
// director, genre, and actors, a collected/wanted/rated filter, and a stable
// sort. Apply is pure and safe to call from any goroutine.
package query
