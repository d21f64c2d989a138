// Package staging manages the per-request scratch directories under the work
// root, where stems, transcripts and diarization output are kept between
// stages. The daemon sweeps the work root on startup: directories whose
// request no longer exists are orphans, and directories untouched for longer
// than the retention window are stale.
package staging
