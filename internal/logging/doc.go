// Package logging assembles structured slog loggers used across reel.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so sequencing and export code
// can tag log lines with session IDs, entry indexes, and sources without
// threading them through every call. A no-op logger is provided for tests and
// for components constructed without one.
package logging
