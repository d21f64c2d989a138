// Package separator wraps the audio-separator CLI that splits a song into an
// instrumental stem and a vocal stem.
//
// The tool is launched through uvx so no Python environment has to be managed
// by tunely. Stems are discovered by scanning the output directory after the
// run, which keeps the adapter independent of the tool's naming template.
package separator
