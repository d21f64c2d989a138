// Package logs reads the per-request log files the daemon writes under
// <log_dir>/requests.
//
// Tail keeps memory bounded on large files and Follow polls for appended
// lines, so `tunely logs --request` keeps working while the daemon is down.
// Lines are slog JSON records; ParseRecord turns them into the same event
// shape the log API returns.
package logs
