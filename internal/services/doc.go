// Package services defines shared utilities consumed by the translation
// pipeline and the engine integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, chunk positions, and correlation
//     identifiers for logging and tracing.
//   - The failure taxonomy: sentinel markers for every error kind plus the
//     Wrap helper, KindOf classification, and the Retryable predicate the
//     orchestrator consults before scheduling another attempt.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across the system.
package services
