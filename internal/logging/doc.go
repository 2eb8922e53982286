// Package logging assembles structured slog loggers and formatting helpers used
// across stemstrip components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with item names, stages, and run identifiers.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail, plus a progress sampler that keeps separator progress from
// flooding the log.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
