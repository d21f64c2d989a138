// Package pipeline runs the karaoke state machine for a single request.
//
// A request moves RECEIVED, SEPARATING, TRANSCRIBING, DIARIZING,
// BUILDING_SUBTITLES, ENCODING and finally DONE, or stops in FAILED with the
// stage, failure kind, reason and recoverability. Each stage delegates to a
// collaborator interface (separator, transcriber, diarizer, assembler) or to
// the in-process subtitle builder, and every transition is handed to an
// optional Recorder so the request store mirrors progress.
//
// The pipeline never retries and never removes files it already wrote.
// Callers bound run time through context cancellation.
package pipeline
