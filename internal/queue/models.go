package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a karaoke request.
type Status string

const (
	StatusReceived          Status = "RECEIVED"
	StatusSeparating        Status = "SEPARATING"
	StatusTranscribing      Status = "TRANSCRIBING"
	StatusDiarizing         Status = "DIARIZING"
	StatusBuildingSubtitles Status = "BUILDING_SUBTITLES"
	StatusEncoding          Status = "ENCODING"
	StatusDone              Status = "DONE"
	StatusFailed            Status = "FAILED"
)

// DaemonStopReason is the failure reason recorded for requests interrupted by
// a daemon shutdown.
const DaemonStopReason = "daemon stopped"

var allStatuses = []Status{
	StatusReceived,
	StatusSeparating,
	StatusTranscribing,
	StatusDiarizing,
	StatusBuildingSubtitles,
	StatusEncoding,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// processingStatuses lists the stage states in pipeline order.
var processingStatuses = []Status{
	StatusSeparating,
	StatusTranscribing,
	StatusDiarizing,
	StatusBuildingSubtitles,
	StatusEncoding,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ProcessingStatuses returns the stage states in pipeline order.
func ProcessingStatuses() []Status {
	out := make([]Status, len(processingStatuses))
	copy(out, processingStatuses)
	return out
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// IsProcessing reports whether the status is one of the stage states.
func (s Status) IsProcessing() bool {
	return stageIndex(s) >= 0
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Stage returns the lowercase stage name for a processing status, or "" for
// RECEIVED and the terminal states.
func (s Status) Stage() string {
	if !s.IsProcessing() {
		return ""
	}
	return strings.ToLower(string(s))
}

// StatusForStage maps a stage name back to its processing status.
func StatusForStage(stage string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(stage)))
	if !status.IsProcessing() {
		return "", false
	}
	return status, true
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Requests advance one stage at a time, the last stage leads to
// DONE, and any non-terminal status may fail.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	if from == StatusReceived {
		return to == StatusSeparating
	}
	idx := stageIndex(from)
	if idx < 0 {
		return false
	}
	if idx == len(processingStatuses)-1 {
		return to == StatusDone
	}
	return to == processingStatuses[idx+1]
}

func stageIndex(s Status) int {
	for i, status := range processingStatuses {
		if status == s {
			return i
		}
	}
	return -1
}

// Artifacts records the files a request produced. Paths are filled as stages
// succeed and are never shared between requests.
type Artifacts struct {
	InputAudio        string `json:"input_audio"`
	InstrumentalAudio string `json:"instrumental_audio,omitempty"`
	VocalAudio        string `json:"vocal_audio,omitempty"`
	SubtitleFile      string `json:"subtitle_file,omitempty"`
	OutputVideo       string `json:"output_video,omitempty"`
}

// Merge fills empty fields from other, keeping paths already recorded.
func (a Artifacts) Merge(other Artifacts) Artifacts {
	pick := func(current, next string) string {
		if current != "" {
			return current
		}
		return next
	}
	return Artifacts{
		InputAudio:        pick(a.InputAudio, other.InputAudio),
		InstrumentalAudio: pick(a.InstrumentalAudio, other.InstrumentalAudio),
		VocalAudio:        pick(a.VocalAudio, other.VocalAudio),
		SubtitleFile:      pick(a.SubtitleFile, other.SubtitleFile),
		OutputVideo:       pick(a.OutputVideo, other.OutputVideo),
	}
}

// Failure is the surface a FAILED request exposes to callers.
type Failure struct {
	Stage       string `json:"stage"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"`
}

// Request is one karaoke job.
type Request struct {
	ID             string
	Status         Status
	OriginalName   string
	BackgroundPath string
	Artifacts      Artifacts
	Failure        *Failure
	PublishedURL   string
	ClaimedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     *time.Time
}

// DisplayName returns the uploaded file name when known, else the request ID.
func (r *Request) DisplayName() string {
	if r == nil {
		return ""
	}
	if name := strings.TrimSpace(r.OriginalName); name != "" {
		return name
	}
	return r.ID
}

// VideoReady reports whether the output video may be served.
func (r *Request) VideoReady() bool {
	return r != nil && r.Status == StatusDone && r.Artifacts.OutputVideo != ""
}

// HealthSummary aggregates request counts for diagnostics.
type HealthSummary struct {
	Total      int `json:"total"`
	Received   int `json:"received"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}
