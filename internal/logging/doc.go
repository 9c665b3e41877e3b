// Package logging assembles structured slog loggers and formatting helpers used
// across moviecase.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so lookup and store code can tag log lines
// with stages, correlation IDs, and lookup generations. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
