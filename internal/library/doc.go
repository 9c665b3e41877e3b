// Package library owns the in-memory movie and collection sets and enforces
// their invariants: unique ids, immutable DateAdded, clamped ratings, and
// referential cleanup of collection membership when a movie is deleted.
//
// Durability is delegated to a Persister; the sqlitestore subpackage provides
// the SQLite/libsql implementation. Readers receive detached copies, so
// callers mutate a copy and hand it back through Update.
package library
