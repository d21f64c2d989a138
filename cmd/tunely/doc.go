// Package main hosts the tunely CLI entrypoint and command graph.
//
// The Cobra command tree renders songs in the foreground, builds subtitle
// files from word lists, runs the HTTP daemon, and inspects the request store
// and environment. Configuration resolution lives here; the pipeline, the
// store and the daemon are wired from the internal packages.
package main
