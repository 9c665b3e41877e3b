// Package catalog defines the library's data model: Movie records and the
// Collections that group them, plus the display helpers shared by the CLI.
//
// Records are plain values. Mutate a Clone and hand it back to the store; the
// store owns identity, DateAdded, and collection membership.
package catalog
