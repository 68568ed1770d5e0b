// Package logging assembles structured slog loggers and formatting helpers
// used across steno.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so HTTP calls and sync-engine ticks can tag log
// lines with job IDs and request correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Logs go to stderr by default so stdout stays reserved for command output
// (tables, JSON, rendered transcripts).
package logging
