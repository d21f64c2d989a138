// Package daemon coordinates the long-running tunely process.
//
// It wires configuration, the request store, the workflow manager and the
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. On start it fails requests a previous daemon left in a
// processing state, so nothing is silently stuck mid-stage.
//
// Keep orchestration logic here: pipeline stages live in their own packages
// while the daemon focuses on startup, shutdown and the HTTP surface.
package daemon
