// Package timing models word-level lyric timing and groups timed words into
// display lines.
//
// TimedWord values come from the transcriber (and, optionally, the diarizer)
// and carry their start/end offsets in seconds plus the speaker label that
// later drives style selection. Segment performs the greedy line packing the
// subtitle builder consumes; it never reorders or drops words.
package timing
