// Package services defines shared utilities consumed by the pipeline stages
// and the adapters that drive external tools.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper; Kind and Recoverable turn
//     a wrapped error into the failure surface a request reports.
//   - A CommandRunner abstraction that captures exit code, stdout and stderr
//     so external tool invocations stay testable.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
