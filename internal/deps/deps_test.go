package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tunely/internal/services"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

const filterListing = `Filters:
  T.. = Timeline support
 ... setpts            V->V       Set PTS for the output video frame.
 ... subtitles         V->V       Render text subtitles onto input video using the libass library.
`

func stubFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckFFmpegSubtitlesAvailable(t *testing.T) {
	ffmpeg := stubFFmpeg(t)
	run := func(_ context.Context, name string, args ...string) (services.CommandResult, error) {
		if name != ffmpeg || len(args) != 2 || args[1] != "-filters" {
			t.Fatalf("unexpected invocation %s %v", name, args)
		}
		return services.CommandResult{Stdout: filterListing}, nil
	}
	status := CheckFFmpegSubtitles(context.Background(), ffmpeg, run)
	if !status.Available {
		t.Fatalf("expected libass support, got detail %q", status.Detail)
	}
}

func TestCheckFFmpegSubtitlesMissingFilter(t *testing.T) {
	ffmpeg := stubFFmpeg(t)
	run := func(context.Context, string, ...string) (services.CommandResult, error) {
		return services.CommandResult{Stdout: " ... setpts V->V Set PTS\n"}, nil
	}
	status := CheckFFmpegSubtitles(context.Background(), ffmpeg, run)
	if status.Available || status.Detail == "" {
		t.Fatalf("expected missing libass, got %#v", status)
	}
}

func TestCheckFFmpegSubtitlesNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := CheckFFmpegSubtitles(context.Background(), "ffmpeg", nil)
	if status.Available {
		t.Fatal("expected ffmpeg resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when ffmpeg is unavailable")
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe", Optional: true},
		{Name: "audio-separator"},
		{Name: "WhisperX"},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 2 || missing[0] != "audio-separator" || missing[1] != "WhisperX" {
		t.Fatalf("unexpected missing list %v", missing)
	}
	if got := MissingRequired(statuses[:2]); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestCheckBinariesSharedCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{
		{Name: "Separator", Command: "clearly-not-present-binary"},
		{Name: "Transcriber", Command: "clearly-not-present-binary", Optional: true},
	})
	for _, status := range results {
		if status.Available || status.Path != "" {
			t.Fatalf("unexpected status %#v", status)
		}
	}
	if !results[1].Optional {
		t.Fatal("expected optional flag to be kept per requirement")
	}
}
