package api

import (
	"net/url"
	"path/filepath"
	"time"

	"tunely/internal/deps"
	"tunely/internal/logging"
	"tunely/internal/preflight"
	"tunely/internal/queue"
	"tunely/internal/workflow"
)

// OutputsPath is the URL prefix finished files are served under.
const OutputsPath = "/outputs/"

// FromRequest converts a stored request to its API representation. Video and
// subtitle URLs are only set once the request is DONE.
func FromRequest(req *queue.Request) Request {
	if req == nil {
		return Request{}
	}
	dto := Request{
		ID:     req.ID,
		Name:   req.DisplayName(),
		Status: string(req.Status),
		Stage:  stageOf(req),
		Artifacts: Artifacts{
			InputAudio:        req.Artifacts.InputAudio,
			InstrumentalAudio: req.Artifacts.InstrumentalAudio,
			VocalAudio:        req.Artifacts.VocalAudio,
			SubtitleFile:      req.Artifacts.SubtitleFile,
			OutputVideo:       req.Artifacts.OutputVideo,
		},
		PublishedURL: req.PublishedURL,
		CreatedAt:    formatTime(req.CreatedAt),
		UpdatedAt:    formatTime(req.UpdatedAt),
	}
	if req.FinishedAt != nil {
		dto.FinishedAt = formatTime(*req.FinishedAt)
	}
	if req.Failure != nil {
		dto.Failure = &Failure{
			Stage:       req.Failure.Stage,
			Kind:        req.Failure.Kind,
			Reason:      req.Failure.Reason,
			Recoverable: req.Failure.Recoverable,
		}
	}
	if req.VideoReady() {
		dto.VideoURL = OutputURL(req.Artifacts.OutputVideo)
		if req.Artifacts.SubtitleFile != "" {
			dto.SubtitleURL = OutputURL(req.Artifacts.SubtitleFile)
		}
	}
	return dto
}

// FromRequests converts a slice of stored requests into API DTOs.
func FromRequests(reqs []*queue.Request) []Request {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]Request, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, FromRequest(req))
	}
	return out
}

// OutputURL returns the relative URL a file in the output directory is
// served from.
func OutputURL(path string) string {
	return OutputsPath + url.PathEscape(filepath.Base(path))
}

// FromStatusSummary converts workflow diagnostics into an API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		Active:     summary.Active,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
	}
	if summary.LastRequest != nil {
		last := FromRequest(summary.LastRequest)
		status.LastRequest = &last
	}
	return status
}

// MergeQueueStats keys stats by status string and includes zero counts for
// every known status.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromDependencies converts dependency checks into API payloads.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Path:        dep.Path,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results into API payloads.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}

// FromLogEvents converts hub events into API payloads.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: formatTime(evt.Timestamp),
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			Stage:     evt.Stage,
			RequestID: evt.RequestID,
			Fields:    evt.Fields,
		})
	}
	return out
}

// Healthy reports whether every required dependency is available.
func Healthy(dependencies []DependencyStatus) bool {
	for _, dep := range dependencies {
		if !dep.Optional && !dep.Available {
			return false
		}
	}
	return true
}

func stageOf(req *queue.Request) string {
	switch {
	case req.Status.IsProcessing():
		return req.Status.Stage()
	case req.Status == queue.StatusFailed && req.Failure != nil:
		return req.Failure.Stage
	default:
		return ""
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
