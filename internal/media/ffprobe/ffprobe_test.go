package ffprobe

import (
	"context"
	"math"
	"strings"
	"testing"

	"tunely/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "h264"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if !result.HasMotionVideo() {
		t.Fatal("expected h264 stream to count as motion video")
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestHasMotionVideoIgnoresCoverArt(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}, {CodecType: "video", CodecName: "mjpeg"}}}
	if result.HasMotionVideo() {
		t.Fatal("cover art should not count as motion video")
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected cover art to be counted as a video stream")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
}

func TestProberInspectDecodesStdout(t *testing.T) {
	var gotArgs []string
	prober := NewProber("").WithCommandRunner(func(_ context.Context, name string, args ...string) (services.CommandResult, error) {
		gotArgs = append([]string{name}, args...)
		return services.CommandResult{
			Stdout: `{"streams":[{"index":0,"codec_type":"video","codec_name":"vp9","width":1280,"height":720}],"format":{"duration":"10.5"}}`,
			Stderr: "noise on stderr",
		}, nil
	})
	result, err := prober.Inspect(context.Background(), "/tmp/bg.webm")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/tmp/bg.webm" {
		t.Fatalf("unexpected invocation %v", gotArgs)
	}
	if result.Streams[0].Width != 1280 || result.DurationSeconds() != 10.5 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProberInspectReportsExitStatus(t *testing.T) {
	prober := NewProber("ffprobe").WithCommandRunner(func(context.Context, string, ...string) (services.CommandResult, error) {
		return services.CommandResult{ExitCode: 1, Stderr: "Invalid data found when processing input"}, nil
	})
	_, err := prober.Inspect(context.Background(), "/tmp/broken.mp4")
	if err == nil || !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	if _, err := prober.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}
