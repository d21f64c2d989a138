// Package subtitles turns timed lyric lines into an ASS karaoke document and
// reads or writes that document on disk.
//
// The Builder resolves each line's style from its first singer, encodes a
// {\kN} reveal tag per word (N in centiseconds) and emits one event per line.
// The serializer writes Script Info, V4+ Styles and Events sections with the
// Default style first and refuses documents whose events reference undefined
// styles. Parse reads the same dialect back so rendered tracks can be
// inspected and re-emitted byte for byte.
package subtitles
