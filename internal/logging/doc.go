// Package logging centralizes slog configuration for quizreel.
//
// It provides a console handler for interactive use, JSON output for
// machine ingestion, shared attribute helpers, and the field constants
// components use so pipeline runs stay greppable across the CLI and logs.
package logging
