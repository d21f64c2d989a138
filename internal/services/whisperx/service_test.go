package whisperx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"tunely/internal/services"
	"tunely/internal/services/whisperx"
	"tunely/internal/testsupport"
	"tunely/internal/timing"
)

const transcriptJSON = `{
  "segments": [
    {"text": "namaste duniya", "start": 0.5, "end": 2.0, "words": [
      {"word": " namaste ", "start": 0.5, "end": 1.2, "score": 0.9},
      {"word": "2024"},
      {"word": "duniya", "start": 1.3, "end": 2.0}
    ]},
    {"text": "", "start": 2.5, "end": 3.0, "words": [
      {"word": "  ", "start": 2.5, "end": 2.7},
      {"word": "phir", "start": 2.5, "end": 3.0}
    ]}
  ]
}`

const diarizedJSON = `{
  "segments": [
    {"start": 0.0, "end": 1.25, "speaker": "SPEAKER_00", "words": []},
    {"start": 1.25, "end": 4.0, "speaker": "SPEAKER_01", "words": []}
  ]
}`

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

type fakeWhisperX struct {
	calls   [][]string
	payload string
	exit    int
}

func (f *fakeWhisperX) run(_ context.Context, _ string, args ...string) (services.CommandResult, error) {
	f.calls = append(f.calls, args)
	if f.exit != 0 {
		return services.CommandResult{ExitCode: f.exit, Stderr: "CUDA out of memory"}, nil
	}
	source := args[slices.Index(args, "whisperx")+1]
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	target := filepath.Join(argValue(args, "--output_dir"), base+".json")
	return services.CommandResult{}, os.WriteFile(target, []byte(f.payload), 0o644)
}

func vocalStem(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "song_(Vocals).wav")
	testsupport.WriteFile(t, path, 64)
	return path, filepath.Join(dir, "work")
}

func TestTranscribeParsesAlignedWords(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: transcriptJSON}
	svc := whisperx.NewService(whisperx.Config{Language: "Hindi"}, nil).WithCommandRunner(fake.run)

	words, err := svc.Transcribe(context.Background(), vocals, work)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := []timing.TimedWord{
		{Text: "namaste", Start: 0.5, End: 1.2, Speaker: timing.UnknownSpeaker},
		{Text: "duniya", Start: 1.3, End: 2.0, Speaker: timing.UnknownSpeaker},
		{Text: "phir", Start: 2.5, End: 3.0, Speaker: timing.UnknownSpeaker},
	}
	if !slices.Equal(words, want) {
		t.Fatalf("words = %+v, want %+v", words, want)
	}

	args := fake.calls[0]
	if argValue(args, "--language") != "hi" {
		t.Fatalf("expected normalized language flag, got %v", args)
	}
	if argValue(args, "--output_format") != "json" || argValue(args, "--model") != whisperx.DefaultModel {
		t.Fatalf("unexpected args %v", args)
	}
	if argValue(args, "--device") != whisperx.CPUDevice || argValue(args, "--compute_type") != whisperx.CPUComputeType {
		t.Fatalf("expected cpu device flags, got %v", args)
	}
	if slices.Contains(args, "--diarize") {
		t.Fatal("transcription must not request diarization")
	}
}

func TestTranscribeCUDAArgs(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: transcriptJSON}
	svc := whisperx.NewService(whisperx.Config{CUDAEnabled: true}, nil).WithCommandRunner(fake.run)
	if _, err := svc.Transcribe(context.Background(), vocals, work); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	args := fake.calls[0]
	if argValue(args, "--index-url") != whisperx.CUDAIndexURL || argValue(args, "--device") != whisperx.CUDADevice {
		t.Fatalf("expected CUDA flags, got %v", args)
	}
	if slices.Contains(args, "--compute_type") {
		t.Fatalf("cuda run should not force compute type: %v", args)
	}
}

func TestTranscribeWithoutWordsFails(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: `{"segments": [{"text": "...", "words": [{"word": "42"}]}]}`}
	svc := whisperx.NewService(whisperx.Config{}, nil).WithCommandRunner(fake.run)

	_, err := svc.Transcribe(context.Background(), vocals, work)
	if !errors.Is(err, services.ErrCollaboratorFailure) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestTranscribeNonZeroExit(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{exit: 1}
	svc := whisperx.NewService(whisperx.Config{}, nil).WithCommandRunner(fake.run)

	_, err := svc.Transcribe(context.Background(), vocals, work)
	if !errors.Is(err, services.ErrCollaboratorFailure) || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected collaborator failure with stderr, got %v", err)
	}
}

func TestDiarizeWithoutTokenLabelsUnknown(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: diarizedJSON}
	svc := whisperx.NewService(whisperx.Config{DiarizeEnabled: true}, nil).WithCommandRunner(fake.run)

	in := []timing.TimedWord{{Text: "a", Start: 0, End: 1, Speaker: "SPEAKER_00"}}
	out, err := svc.Diarize(context.Background(), vocals, in, work)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if out[0].Speaker != timing.UnknownSpeaker {
		t.Fatalf("expected UNKNOWN, got %q", out[0].Speaker)
	}
	if len(fake.calls) != 0 {
		t.Fatal("whisperx should not run without a token")
	}
	if svc.DiarizationAvailable() {
		t.Fatal("diarization should be unavailable without a token")
	}
}

func TestDiarizeAssignsSpeakers(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: diarizedJSON}
	svc := whisperx.NewService(whisperx.Config{DiarizeEnabled: true, HFToken: " hf_abc "}, nil).WithCommandRunner(fake.run)

	in := []timing.TimedWord{
		{Text: "namaste", Start: 0.5, End: 1.2, Speaker: timing.UnknownSpeaker},
		{Text: "duniya", Start: 1.3, End: 2.0, Speaker: timing.UnknownSpeaker},
		{Text: "outro", Start: 5.0, End: 6.0, Speaker: timing.UnknownSpeaker},
	}
	out, err := svc.Diarize(context.Background(), vocals, in, work)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	got := []string{out[0].Speaker, out[1].Speaker, out[2].Speaker}
	want := []string{"SPEAKER_00", "SPEAKER_01", timing.UnknownSpeaker}
	if !slices.Equal(got, want) {
		t.Fatalf("speakers = %v, want %v", got, want)
	}
	args := fake.calls[0]
	if !slices.Contains(args, "--diarize") || argValue(args, "--hf_token") != "hf_abc" {
		t.Fatalf("expected diarize flags, got %v", args)
	}
}

func TestDiarizeWithoutTurnsFails(t *testing.T) {
	vocals, work := vocalStem(t)
	fake := &fakeWhisperX{payload: `{"segments": []}`}
	svc := whisperx.NewService(whisperx.Config{DiarizeEnabled: true, HFToken: "hf"}, nil).WithCommandRunner(fake.run)

	_, err := svc.Diarize(context.Background(), vocals, []timing.TimedWord{{Text: "a", Start: 0, End: 1}}, work)
	if !errors.Is(err, services.ErrCollaboratorFailure) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestTranscribeMissingBinary(t *testing.T) {
	testsupport.IsolatePath(t)
	vocals, work := vocalStem(t)
	svc := whisperx.NewService(whisperx.Config{}, nil)

	_, err := svc.Transcribe(context.Background(), vocals, work)
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected dependency missing, got %v", err)
	}
}
