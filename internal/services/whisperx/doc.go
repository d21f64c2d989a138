// Package whisperx drives WhisperX for word-level lyric timing.
//
// The Service covers two pipeline stages:
//   - Transcribe runs WhisperX with alignment on the vocal stem and returns
//     one timing.TimedWord per aligned word, all labelled UNKNOWN.
//   - Diarize attributes words to speakers. Without a Hugging Face token it
//     leaves every word UNKNOWN and logs a warning; with one it reruns
//     WhisperX with --diarize and assigns each word the speaker turn that
//     contains the word's midpoint.
//
// Commands run through services.CommandRunner so tests inject fakes that
// write WhisperX JSON into the output directory.
package whisperx
