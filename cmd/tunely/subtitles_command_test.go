package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleWords = `[
  {"text": "Hello", "start": 0.5, "end": 1.0, "speaker": "SPEAKER_00"},
  {"text": "world", "start": 1.0, "end": 1.5, "speaker": "SPEAKER_00"},
  {"text": "again", "start": 2.0, "end": 2.4, "speaker": "SPEAKER_01"}
]`

func writeWords(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "words.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	return path
}

func TestSubtitlesCommandWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	words := writeWords(t, t.TempDir(), sampleWords)
	target := filepath.Join(t.TempDir(), "song.ass")

	out, _, err := runCLI(t, []string{"subtitles", words, "-o", target, "--max-words", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("subtitles: %v", err)
	}
	requireContains(t, out, "Wrote 2 lines (3 words)")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	requireContains(t, text, "[Events]")
	requireContains(t, text, `{\k50}Hello`)
	requireContains(t, text, ",Speaker1,")
	requireContains(t, text, ",Speaker2,")
	if got := strings.Count(text, "Dialogue:"); got != 2 {
		t.Fatalf("expected 2 dialogue lines, got %d", got)
	}
}

func TestSubtitlesCommandDefaultsNextToInput(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	words := writeWords(t, dir, sampleWords)

	if _, _, err := runCLI(t, []string{"subtitles", words}, env.configPath); err != nil {
		t.Fatalf("subtitles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "words.ass")); err != nil {
		t.Fatalf("expected words.ass next to input: %v", err)
	}
}

func TestSubtitlesCommandStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	words := writeWords(t, t.TempDir(), sampleWords)

	out, _, err := runCLI(t, []string{"subtitles", words, "-o", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("subtitles: %v", err)
	}
	requireContains(t, out, "[Script Info]")
	if got := strings.Count(out, "Dialogue:"); got != 1 {
		t.Fatalf("expected one line at the default width, got %d", got)
	}
}

func TestSubtitlesCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		body string
		args []string
	}{
		{name: "out of order", body: `[{"text":"b","start":2,"end":3},{"text":"a","start":1,"end":2}]`},
		{name: "empty text", body: `[{"text":"  ","start":0,"end":1}]`},
		{name: "negative start", body: `[{"text":"a","start":-1,"end":1}]`},
		{name: "not json", body: `words`},
		{name: "zero width", body: sampleWords, args: []string{"--max-words", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := writeWords(t, t.TempDir(), tt.body)
			args := append([]string{"subtitles", words, "-o", "-"}, tt.args...)
			if _, _, err := runCLI(t, args, env.configPath); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
