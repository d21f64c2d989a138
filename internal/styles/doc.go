// Package styles describes the ASS styles available to the karaoke track and
// resolves diarizer speaker labels to style identifiers.
//
// Resolution is total: any label without a mapping, including the UNKNOWN
// label, resolves to the Default style so every subtitle event references a
// defined style.
package styles
