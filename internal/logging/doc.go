// Package logging centralizes slog construction and the structured field
// vocabulary used across the pipeline. Console output uses a compact
// human-readable handler; the json format emits machine-parseable events for
// external consumers.
package logging
