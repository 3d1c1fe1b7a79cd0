// Package logging assembles structured slog loggers and formatting helpers used
// across helixprint.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and lifecycle
// code can tag log lines with correlation IDs and print filenames. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
