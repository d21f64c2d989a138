// Package encoding assembles the final karaoke video with ffmpeg.
//
// The Assembler burns the ASS track over either a looped background video or
// a synthesized color canvas, maps the instrumental as the only audio stream
// and stops at the shorter input. Outcomes are classified for the pipeline:
// a missing ffmpeg binary is a DependencyMissing failure that never touches
// the output path, and a non-zero exit is an EncodeFailure carrying the
// captured stderr. Encodes land in a hidden partial file first and are renamed
// into place only on success.
package encoding
