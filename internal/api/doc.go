// Package api defines wire-format types, converters and request services for
// the HTTP API and the CLI. It translates internal request models into
// transport-friendly DTOs so consumers never couple to the store schema.
//
// # Key Types
//
// Request: transport representation of a karaoke request with its stage,
// artifacts, failure surface and, once DONE, the video and subtitle URLs.
//
// WorkflowStatus / HealthResponse: daemon running state, queue stats,
// dependency availability and directory checks.
//
// LogEvent/LogStreamResponse: structured log payloads for live tailing.
//
// # Services
//
// Intake: validates and stores uploads, then creates RECEIVED requests.
//
// RequestService: read-only listing and lookup returning DTOs.
//
// RemoveRequestsByID: per-ID removal of finished requests.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Statuses are exposed as their upper-case
// names and stages as lower-case names. Timestamps use RFC3339 with
// milliseconds. Output URLs are relative to the API base.
package api
