package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tunely/internal/logging"
	"tunely/internal/pipeline"
	"tunely/internal/queue"
	"tunely/internal/services"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.runner == nil || m.store == nil {
		m.mu.Unlock()
		return errors.New("workflow runner and store are required")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("workers", m.workers),
		logging.Duration("poll_interval", m.pollInterval),
		logging.Duration("request_timeout", m.timeout),
	)
	go func() {
		defer close(done)
		m.loop(runCtx)
	}()
	return nil
}

// Stop cancels in-flight requests and waits for the workers to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))
}

func (m *Manager) loop(ctx context.Context) {
	var group errgroup.Group
	group.SetLimit(m.workers)
	defer func() { _ = group.Wait() }()

	for {
		if ctx.Err() != nil {
			return
		}
		req, err := m.store.ClaimNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to claim next request",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check request database access"),
			)
			m.waitForWork(ctx)
			continue
		}
		if req == nil {
			m.waitForWork(ctx)
			continue
		}

		// Go blocks until a worker slot frees up.
		group.Go(func() error {
			m.process(ctx, req)
			return nil
		})
	}
}

func (m *Manager) waitForWork(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) process(ctx context.Context, req *queue.Request) {
	if ctx.Err() != nil {
		// Claimed but never started; released on the next daemon start.
		return
	}
	m.trackActive(1)
	defer m.trackActive(-1)

	runCtx := services.WithRequestID(ctx, req.ID)
	var cancel context.CancelFunc = func() {}
	if m.timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, m.timeout)
	}
	defer cancel()

	base, closeLog := m.requestLogger(req)
	defer closeLog()
	logger := logging.WithContext(runCtx, logging.NewComponentLogger(base, "workflow"))
	logger.Info("request claimed",
		logging.String(logging.FieldEventType, "request_claimed"),
		logging.String("name", req.DisplayName()),
	)

	res, err := m.runner.Run(runCtx, pipeline.Job{
		RequestID:      req.ID,
		InputAudio:     req.Artifacts.InputAudio,
		BackgroundPath: m.backgroundFor(req),
		Logger:         base,
	})
	if err != nil {
		m.setLastError(err)
		logger.Info("request failed",
			logging.String(logging.FieldEventType, "request_failed"),
			logging.String("failed_stage", failureStage(res.Failure)),
			logging.Duration("duration", res.Duration),
		)
	} else {
		m.publish(ctx, logger, req.ID, res.Artifacts.OutputVideo)
	}

	latest, getErr := m.store.Get(context.WithoutCancel(ctx), req.ID)
	if getErr != nil || latest == nil {
		return
	}
	m.setLastRequest(latest)
	m.notify(ctx, logger, latest)
}

func (m *Manager) notify(ctx context.Context, logger *slog.Logger, req *queue.Request) {
	if m.notifier == nil || ctx.Err() != nil {
		return
	}
	var err error
	switch req.Status {
	case queue.StatusDone:
		err = m.notifier.NotifyRequestCompleted(ctx, req)
	case queue.StatusFailed:
		err = m.notifier.NotifyRequestFailed(ctx, req)
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [notifications].ntfy_topic"),
		)
	}
}

func (m *Manager) publish(ctx context.Context, logger *slog.Logger, id, video string) {
	if m.publisher == nil || video == "" {
		return
	}
	location, err := m.publisher.Publish(ctx, id, video)
	if err != nil {
		logging.WarnWithContext(logger, "video publication failed", "publish_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the [storage] endpoint and credentials"),
			logging.String(logging.FieldImpact, "the video is still served from the output directory"),
		)
		return
	}
	if err := m.store.SetPublished(ctx, id, location); err != nil {
		logger.Warn("failed to record published location", logging.Error(err))
		return
	}
	logger.Info("video published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("location", location),
	)
}

func (m *Manager) requestLogger(req *queue.Request) (*slog.Logger, func()) {
	if m.requestLogs == nil {
		return m.baseLogger, func() {}
	}
	logger, closer, err := m.requestLogs.Open(req.ID)
	if err != nil {
		m.logger.Warn("request log unavailable",
			logging.Error(err),
			logging.String(logging.FieldRequestID, req.ID),
		)
		return m.baseLogger, func() {}
	}
	return logger, func() { _ = closer.Close() }
}

func (m *Manager) backgroundFor(req *queue.Request) string {
	if req.BackgroundPath != "" {
		return req.BackgroundPath
	}
	if m.cfg != nil {
		return m.cfg.Paths.BackgroundVideo
	}
	return ""
}

func failureStage(f *queue.Failure) string {
	if f == nil {
		return ""
	}
	return f.Stage
}
