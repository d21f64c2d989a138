package encoding_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"tunely/internal/encoding"
	"tunely/internal/media/ffprobe"
	"tunely/internal/services"
	"tunely/internal/testsupport"
)

// writeOutputScript writes to the last argument, which is the output path.
const writeOutputScript = `for last; do :; done
printf 'fake-mp4' > "$last"`

type fakeProber struct {
	result ffprobe.Result
	err    error
}

func (f fakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return f.result, f.err
}

func newRequest(t *testing.T) encoding.Request {
	t.Helper()
	dir := t.TempDir()
	audio := filepath.Join(dir, "instrumental.wav")
	subs := filepath.Join(dir, "req.ass")
	testsupport.WriteFile(t, audio, 64)
	testsupport.WriteFile(t, subs, 64)
	return encoding.Request{
		AudioPath:    audio,
		SubtitlePath: subs,
		OutputPath:   filepath.Join(dir, "outputs", "req.mp4"),
	}
}

func TestAssembleMissingEncoderLeavesOutputUntouched(t *testing.T) {
	testsupport.IsolatePath(t)
	req := newRequest(t)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(req.OutputPath, []byte("previous"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	assembler := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil)
	_, err := assembler.Assemble(context.Background(), req)
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected ErrDependencyMissing, got %v", err)
	}
	if services.Kind(err) != services.KindDependencyMissing {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
	data, readErr := os.ReadFile(req.OutputPath)
	if readErr != nil || string(data) != "previous" {
		t.Fatalf("expected pre-existing output untouched, got %q (%v)", data, readErr)
	}
	entries, _ := os.ReadDir(filepath.Dir(req.OutputPath))
	if len(entries) != 1 {
		t.Fatalf("expected no partial files, found %d entries", len(entries))
	}
}

func TestAssembleMissingEncoderCreatesNothing(t *testing.T) {
	testsupport.IsolatePath(t)
	req := newRequest(t)
	_, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).Assemble(context.Background(), req)
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected ErrDependencyMissing, got %v", err)
	}
	if _, statErr := os.Stat(req.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output, stat err %v", statErr)
	}
}

func TestAssembleEncoderFailureReportsDiagnostics(t *testing.T) {
	binDir := t.TempDir()
	testsupport.WriteScript(t, binDir, "ffmpeg", `echo "Unable to open subtitle file /nope.ass" >&2
exit 1`)
	testsupport.PrependPath(t, binDir)

	req := newRequest(t)
	req.SubtitlePath = "/nope.ass"
	result, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).Assemble(context.Background(), req)
	if !errors.Is(err, services.ErrEncodeFailure) {
		t.Fatalf("expected ErrEncodeFailure, got %v", err)
	}
	if !strings.Contains(result.Stderr, "Unable to open subtitle file") {
		t.Fatalf("expected captured stderr, got %q", result.Stderr)
	}
	if result.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", result.ExitCode)
	}
	if !strings.Contains(err.Error(), "Unable to open subtitle file") {
		t.Fatalf("expected diagnostics in error, got %v", err)
	}
	if result.OutputPath != "" {
		t.Fatalf("failed encode must not report an output, got %q", result.OutputPath)
	}
	if _, statErr := os.Stat(req.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output after failure, stat err %v", statErr)
	}
}

func TestAssembleFailureRemovesPartialOutput(t *testing.T) {
	binDir := t.TempDir()
	testsupport.WriteScript(t, binDir, "ffmpeg", `for last; do :; done
printf 'half' > "$last"
echo "Conversion failed!" >&2
exit 187`)
	testsupport.PrependPath(t, binDir)

	req := newRequest(t)
	_, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).Assemble(context.Background(), req)
	if !errors.Is(err, services.ErrEncodeFailure) {
		t.Fatalf("expected ErrEncodeFailure, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(req.OutputPath))
	if len(entries) != 0 {
		t.Fatalf("expected partial output to be removed, found %v", entries)
	}
}

func TestAssembleSuccessRenamesIntoPlace(t *testing.T) {
	binDir := t.TempDir()
	testsupport.WriteScript(t, binDir, "ffmpeg", writeOutputScript)
	testsupport.PrependPath(t, binDir)

	req := newRequest(t)
	result, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).Assemble(context.Background(), req)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if result.OutputPath != req.OutputPath {
		t.Fatalf("unexpected output path %q", result.OutputPath)
	}
	data, err := os.ReadFile(req.OutputPath)
	if err != nil || string(data) != "fake-mp4" {
		t.Fatalf("expected encoded output, got %q (%v)", data, err)
	}
	if result.UsedBackground {
		t.Fatal("expected color background without a background path")
	}
	if !slices.Contains(result.Args, "lavfi") {
		t.Fatalf("expected lavfi color source, got %v", result.Args)
	}
}

func TestAssembleUsesProbedBackground(t *testing.T) {
	binDir := t.TempDir()
	testsupport.WriteScript(t, binDir, "ffmpeg", writeOutputScript)
	testsupport.PrependPath(t, binDir)

	req := newRequest(t)
	req.BackgroundPath = filepath.Join(t.TempDir(), "loop.mp4")
	testsupport.WriteFile(t, req.BackgroundPath, 128)

	video := fakeProber{result: ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264"}}}}
	result, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).
		WithBackgroundProber(video).
		Assemble(context.Background(), req)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if !result.UsedBackground || !slices.Contains(result.Args, "-stream_loop") {
		t.Fatalf("expected looped background, got %v", result.Args)
	}

	still := fakeProber{result: ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "png"}}}}
	result, err = encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).
		WithBackgroundProber(still).
		Assemble(context.Background(), req)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if result.UsedBackground {
		t.Fatal("expected still image background to be rejected")
	}
}

func TestAssembleRejectsIncompleteRequest(t *testing.T) {
	_, err := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).Assemble(context.Background(), encoding.Request{})
	if !errors.Is(err, services.ErrInputInvalid) {
		t.Fatalf("expected ErrInputInvalid, got %v", err)
	}
}

func TestAssembleWithInjectedRunner(t *testing.T) {
	binDir := t.TempDir()
	testsupport.WriteScript(t, binDir, "ffmpeg", "exit 0")
	testsupport.PrependPath(t, binDir)

	req := newRequest(t)
	var calls int
	assembler := encoding.NewAssembler("ffmpeg", encoding.DefaultPreset(), nil).
		WithCommandRunner(func(_ context.Context, _ string, args ...string) (services.CommandResult, error) {
			calls++
			return services.CommandResult{}, os.WriteFile(args[len(args)-1], []byte("ok"), 0o644)
		})
	if _, err := assembler.Assemble(context.Background(), req); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one encoder call, got %d", calls)
	}
}
