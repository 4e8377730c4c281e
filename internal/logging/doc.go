// Package logging assembles structured slog loggers and formatting helpers used
// across orderbell services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that keep warning and error lines in a single
// shape (event type, hint, impact). Context helpers tag log lines with order and
// correlation identifiers. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
