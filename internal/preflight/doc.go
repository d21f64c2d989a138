// Package preflight provides readiness checks for external tools, services
// and filesystem paths that tunely depends on.
//
// The CLI "tunely status" command and the daemon's /api/health endpoint both
// use CheckSystemDeps and RunAll. Failed checks are reported, never fatal:
// a missing tool surfaces later as a DependencyMissing failure on the
// request that needs it.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
