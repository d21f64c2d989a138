// Package workflow drives stored karaoke requests through the pipeline.
//
// The Manager claims the oldest RECEIVED request from the store, hands it to
// a Runner on a bounded worker pool, and lets the pipeline record each state
// transition back into the store. Finished videos are optionally handed to a
// Publisher. Each request may log to its own file under <log_dir>/requests
// while still feeding the daemon log stream.
//
// Requests claimed but not started when the manager stops are released by
// the store on the next daemon start, and requests interrupted mid-stage are
// failed there as recoverable.
package workflow
