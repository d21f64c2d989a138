package encoding

import (
	"slices"
	"testing"
)

func TestBuildArgsColorSource(t *testing.T) {
	req := Request{AudioPath: "/w/inst.wav", SubtitlePath: "/w/req.ass"}
	got := BuildArgs(DefaultPreset(), req, "/w/.partial-req.mp4", false)
	want := []string{
		"-hide_banner", "-nostdin",
		"-f", "lavfi", "-i", "color=c=black:s=1280x720",
		"-i", "/w/inst.wav",
		"-vf", "subtitles=filename=/w/req.ass",
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"-shortest", "-y", "/w/.partial-req.mp4",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected args\n got: %v\nwant: %v", got, want)
	}
}

func TestBuildArgsBackgroundSource(t *testing.T) {
	req := Request{AudioPath: "a.wav", SubtitlePath: "s.ass", BackgroundPath: "bg.mp4"}
	got := BuildArgs(DefaultPreset(), req, "out.mp4", true)
	if !slices.Equal(got[2:6], []string{"-stream_loop", "-1", "-i", "bg.mp4"}) {
		t.Fatalf("expected looped background input, got %v", got[:6])
	}
	if slices.Contains(got, "lavfi") {
		t.Fatalf("background form must not synthesize a canvas: %v", got)
	}
	if got[len(got)-1] != "out.mp4" || got[len(got)-2] != "-y" {
		t.Fatalf("expected overwrite of output, got %v", got[len(got)-2:])
	}
}

func TestSubtitleFilterEscapesSpecialCharacters(t *testing.T) {
	got := SubtitleFilter(`/tmp/a'b:c,d.ass`)
	want := `subtitles=filename=/tmp/a\\\'b\\:c\,d.ass`
	if got != want {
		t.Fatalf("SubtitleFilter = %s, want %s", got, want)
	}
}

func TestPresetValidate(t *testing.T) {
	if err := DefaultPreset().Validate(); err != nil {
		t.Fatalf("default preset invalid: %v", err)
	}
	bad := DefaultPreset()
	bad.CRF = 60
	if bad.Validate() == nil {
		t.Fatal("expected crf range error")
	}
	bad = DefaultPreset()
	bad.Width = 1279
	if bad.Validate() == nil {
		t.Fatal("expected odd width error")
	}
	bad = DefaultPreset()
	bad.BackgroundColor = "black:s=1x1"
	if bad.Validate() == nil {
		t.Fatal("expected color injection to be rejected")
	}
	w, h, err := ParseResolution("1920X1080")
	if err != nil || w != 1920 || h != 1080 {
		t.Fatalf("ParseResolution = %d %d %v", w, h, err)
	}
	if _, _, err := ParseResolution("wide"); err == nil {
		t.Fatal("expected resolution parse error")
	}
}
