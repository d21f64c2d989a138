// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe through an injectable command runner
//
// The assembler uses it to confirm a background file really carries moving
// video before looping it under the lyrics; the CLI uses it to report input
// durations.
package ffprobe
