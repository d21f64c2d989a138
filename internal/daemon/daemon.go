package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/deps"
	"tunely/internal/logging"
	"tunely/internal/preflight"
	"tunely/internal/queue"
	"tunely/internal/staging"
	"tunely/internal/workflow"
)

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	intake   *api.Intake
	hub      *logging.StreamHub
	server   *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	Dependencies []deps.Status
	Checks       []preflight.Result
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. hub may be nil, in
// which case the log API returns no events.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, hub *logging.StreamHub) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		intake:   api.NewIntake(cfg, store, logger),
		hub:      hub,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, fails requests a previous daemon left
// mid-stage, sweeps the work root, then launches the workflow manager and
// the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tunely daemon instance is already running")
	}

	interrupted, err := d.store.FailInterrupted(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("fail interrupted requests: %w", err)
	}
	if interrupted > 0 {
		logging.WarnWithContext(d.logger, "requests interrupted by previous shutdown marked failed", "requests_interrupted",
			logging.Int64("count", interrupted),
			logging.String(logging.FieldImpact, "those requests are FAILED and recoverable; resubmit them"),
		)
	}

	d.sweepWorkRoot(ctx)
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(ctx, d.cfg)); len(missing) > 0 {
		logging.WarnWithContext(d.logger, "required dependencies missing", "dependencies_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldImpact, "requests will fail at the stage that needs them"),
			logging.String(logging.FieldErrorHint, "run `tunely status` for details"),
		)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.server.start(d.ctx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("tunely daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
	)
	return nil
}

// sweepWorkRoot runs before any worker claims a request, so no scratch
// directory is in use.
func (d *Daemon) sweepWorkRoot(ctx context.Context) {
	reqs, err := d.store.List(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "skipping work directory cleanup", "work_cleanup_skipped",
			logging.Error(err),
			logging.String(logging.FieldImpact, "scratch files are kept until the next start"),
		)
		return
	}
	known := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		known[req.ID] = struct{}{}
	}
	root := d.cfg.WorkRoot()
	orphaned := staging.CleanOrphaned(ctx, root, known, d.logger)
	stale := staging.CleanStale(ctx, root, d.cfg.WorkRetention(), d.logger)
	if removed := len(orphaned.Removed) + len(stale.Removed); removed > 0 {
		d.logger.Info("work root cleaned",
			logging.String(logging.FieldEventType, "work_cleanup_summary"),
			logging.Int("removed", removed),
		)
	}
}

// Stop stops background processing and releases the daemon lock. Requests
// cut off mid-stage are failed as canceled by the pipeline.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.server.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tunely daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit stores an upload as a new request and wakes the workflow.
func (d *Daemon) Submit(ctx context.Context, upload api.Upload) (*queue.Request, error) {
	req, err := d.intake.Submit(ctx, upload)
	if err != nil {
		return nil, err
	}
	d.workflow.Wake()
	return req, nil
}

// Request returns a stored request, or nil when unknown.
func (d *Daemon) Request(ctx context.Context, id string) (*queue.Request, error) {
	return d.store.Get(ctx, id)
}

// ListRequests returns requests filtered by optional statuses.
func (d *Daemon) ListRequests(ctx context.Context, statuses []queue.Status) ([]*queue.Request, error) {
	return d.store.List(ctx, statuses...)
}

// LogStream returns the in-memory log hub, if any.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.hub
}

// Address returns the bound API address once the daemon is running.
func (d *Daemon) Address() string {
	return d.server.address()
}

// Status returns the current daemon status including dependency checks.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
		Checks:       preflight.RunAll(ctx, d.cfg),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
