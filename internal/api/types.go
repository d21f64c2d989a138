package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Request describes a karaoke request in a transport-friendly format.
type Request struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage,omitempty"`
	Artifacts    Artifacts `json:"artifacts"`
	Failure      *Failure  `json:"failure,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	SubtitleURL  string    `json:"subtitle_url,omitempty"`
	PublishedURL string    `json:"published_url,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty"`
	UpdatedAt    string    `json:"updated_at,omitempty"`
	FinishedAt   string    `json:"finished_at,omitempty"`
}

// Artifacts lists the files a request produced so far.
type Artifacts struct {
	InputAudio        string `json:"input_audio,omitempty"`
	InstrumentalAudio string `json:"instrumental_audio,omitempty"`
	VocalAudio        string `json:"vocal_audio,omitempty"`
	SubtitleFile      string `json:"subtitle_file,omitempty"`
	OutputVideo       string `json:"output_video,omitempty"`
}

// Failure is the failure surface of a FAILED request.
type Failure struct {
	Stage       string `json:"stage"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"`
}

// SubmitResponse acknowledges an accepted upload.
type SubmitResponse struct {
	RequestID string `json:"request_id"`
	StatusURL string `json:"status_url"`
}

// RequestListResponse wraps a collection of requests.
type RequestListResponse struct {
	Requests []Request `json:"requests"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Workers     int            `json:"workers"`
	Active      int            `json:"active"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error,omitempty"`
	LastRequest *Request       `json:"last_request,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult reports a readiness check such as directory access.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse aggregates daemon readiness for API consumers.
type HealthResponse struct {
	Healthy      bool               `json:"healthy"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"database_path"`
	LockFilePath string             `json:"lock_file_path"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// LogEvent is one structured log record.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is one page of the daemon log stream. Next is the cursor
// to pass as "since" on the following call.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
