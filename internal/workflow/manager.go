package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tunely/internal/config"
	"tunely/internal/logging"
	"tunely/internal/notifications"
	"tunely/internal/pipeline"
	"tunely/internal/queue"
)

// Runner executes one karaoke request end to end.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (pipeline.Result, error)
}

// Publisher copies a finished video somewhere outside the output directory
// and returns its location.
type Publisher interface {
	Publish(ctx context.Context, requestID, videoPath string) (string, error)
}

// Manager claims RECEIVED requests from the store and runs them on a bounded
// pool of workers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	runner       Runner
	publisher    Publisher
	notifier     notifications.Service
	requestLogs  *RequestLogger
	logger       *slog.Logger
	baseLogger   *slog.Logger
	pollInterval time.Duration
	timeout      time.Duration
	workers      int

	wake chan struct{}

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	active      int
	lastErr     error
	lastRequest *queue.Request
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPublisher uploads finished videos after they reach DONE.
func WithPublisher(p Publisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithNotifier announces every request that reaches DONE or FAILED.
func WithNotifier(n notifications.Service) ManagerOption {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithRequestLogs writes each request's stage logs to its own file.
func WithRequestLogs(l *RequestLogger) ManagerOption {
	return func(m *Manager) {
		m.requestLogs = l
	}
}

// NewManager constructs a workflow manager. Worker count, poll interval and
// the per-request time bound come from the [workflow] section.
func NewManager(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		store:        store,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		baseLogger:   logger,
		pollInterval: cfg.PollInterval(),
		timeout:      cfg.RequestTimeout(),
		workers:      max(cfg.Workflow.Workers, 1),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StoreRecorder persists pipeline transitions into the request store.
func StoreRecorder(store *queue.Store) pipeline.Recorder {
	return pipeline.RecorderFunc(func(ctx context.Context, t pipeline.Transition) error {
		return store.Transition(ctx, t.RequestID, t.To, t.Artifacts, t.Failure)
	})
}

// Wake skips the current poll wait so a new submission starts promptly.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
