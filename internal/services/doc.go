// Package services defines shared utilities consumed by the ingestion
// workflows and the external lookup clients.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, correlation identifiers, and
//     lookup generations for logging.
//   - Structured error markers plus the Wrap helper so callers can branch on
//     not-found, not-configured, and network failures with errors.Is.
//
// Use these helpers when wiring new lookup or store code so error handling and
// observability stay uniform across the library.
package services
