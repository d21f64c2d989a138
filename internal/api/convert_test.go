package api

import (
	"testing"
	"time"

	"tunely/internal/deps"
	"tunely/internal/queue"
	"tunely/internal/services"
	"tunely/internal/workflow"
)

func TestFromRequestDone(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := created.Add(2 * time.Minute)
	req := &queue.Request{
		ID:           "0b7c6a0e-1111-4222-8333-444455556666",
		Status:       queue.StatusDone,
		OriginalName: "Hello World.mp3",
		Artifacts: queue.Artifacts{
			InputAudio:   "/uploads/x_Hello_World.mp3",
			SubtitleFile: "/out/0b7c6a0e-1111-4222-8333-444455556666.ass",
			OutputVideo:  "/out/0b7c6a0e-1111-4222-8333-444455556666.mp4",
		},
		CreatedAt:  created,
		UpdatedAt:  finished,
		FinishedAt: &finished,
	}
	dto := FromRequest(req)
	if dto.Status != "DONE" || dto.Stage != "" {
		t.Fatalf("unexpected status/stage %q/%q", dto.Status, dto.Stage)
	}
	if dto.VideoURL != "/outputs/0b7c6a0e-1111-4222-8333-444455556666.mp4" {
		t.Fatalf("unexpected video url %q", dto.VideoURL)
	}
	if dto.SubtitleURL != "/outputs/0b7c6a0e-1111-4222-8333-444455556666.ass" {
		t.Fatalf("unexpected subtitle url %q", dto.SubtitleURL)
	}
	if dto.Name != "Hello World.mp3" {
		t.Fatalf("unexpected name %q", dto.Name)
	}
	if dto.CreatedAt != "2026-03-01T12:00:00.000Z" || dto.FinishedAt == "" {
		t.Fatalf("unexpected timestamps %q %q", dto.CreatedAt, dto.FinishedAt)
	}
}

func TestFromRequestFailedHidesOutputs(t *testing.T) {
	req := &queue.Request{
		ID:     "id-1",
		Status: queue.StatusFailed,
		Artifacts: queue.Artifacts{
			InputAudio:   "/uploads/in.wav",
			SubtitleFile: "/out/id-1.ass",
		},
		Failure: &queue.Failure{
			Stage:  "encoding",
			Kind:   services.KindEncodeFailure,
			Reason: "ffmpeg exited with status 1",
		},
	}
	dto := FromRequest(req)
	if dto.VideoURL != "" || dto.SubtitleURL != "" {
		t.Fatalf("failed request must not expose outputs: %+v", dto)
	}
	if dto.Stage != "encoding" {
		t.Fatalf("expected failure stage, got %q", dto.Stage)
	}
	if dto.Failure == nil || dto.Failure.Kind != services.KindEncodeFailure || dto.Failure.Recoverable {
		t.Fatalf("unexpected failure %+v", dto.Failure)
	}
	if dto.Artifacts.SubtitleFile != "/out/id-1.ass" {
		t.Fatal("partial artifacts should still be listed")
	}
}

func TestFromRequestProcessingStage(t *testing.T) {
	dto := FromRequest(&queue.Request{ID: "x", Status: queue.StatusBuildingSubtitles})
	if dto.Stage != "building_subtitles" {
		t.Fatalf("unexpected stage %q", dto.Stage)
	}
}

func TestMergeQueueStatsIncludesZeroes(t *testing.T) {
	stats := MergeQueueStats(map[queue.Status]int{queue.StatusDone: 3})
	if len(stats) != len(queue.AllStatuses()) {
		t.Fatalf("expected every status, got %v", stats)
	}
	if stats["DONE"] != 3 || stats["FAILED"] != 0 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:     true,
		Workers:     2,
		Active:      1,
		LastError:   "boom",
		LastRequest: &queue.Request{ID: "abc", Status: queue.StatusReceived},
		QueueStats:  map[queue.Status]int{queue.StatusReceived: 1},
	}
	status := FromStatusSummary(summary)
	if !status.Running || status.Workers != 2 || status.Active != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LastRequest == nil || status.LastRequest.ID != "abc" {
		t.Fatalf("unexpected last request %+v", status.LastRequest)
	}
	if status.QueueStats["RECEIVED"] != 1 {
		t.Fatalf("unexpected queue stats %v", status.QueueStats)
	}
}

func TestHealthyIgnoresOptional(t *testing.T) {
	dependencies := FromDependencies([]deps.Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe", Optional: true},
	})
	if !Healthy(dependencies) {
		t.Fatal("optional dependencies must not affect health")
	}
	dependencies = append(dependencies, DependencyStatus{Name: "uvx"})
	if Healthy(dependencies) {
		t.Fatal("missing required dependency must be unhealthy")
	}
}

func TestDownloadName(t *testing.T) {
	req := &queue.Request{ID: "0b7c6a0e-1111", OriginalName: "My Song (Live).mp3"}
	if got := DownloadName(req, "/out/0b7c6a0e-1111.mp4"); got != "my_song__live-karaoke.mp4" {
		t.Fatalf("unexpected download name %q", got)
	}
	if got := DownloadName(&queue.Request{ID: "0b7c6a0e-1111"}, "/out/x.ass"); got != "0b7c6a0e-karaoke.ass" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
