// Package services defines shared utilities consumed by the workflow runner
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into retryable and terminal outcomes.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
