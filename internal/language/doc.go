// Package language normalizes the transcription language setting.
//
// Codes are parsed with golang.org/x/text/language so users may write "hi",
// "hin", "hi-IN" or "Hindi"; the transcriber always receives the short ISO
// 639 form WhisperX expects.
package language
