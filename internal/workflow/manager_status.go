package workflow

import (
	"context"

	"tunely/internal/logging"
	"tunely/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	Active      int
	LastError   string
	LastRequest *queue.Request
	QueueStats  map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running: m.running,
		Workers: m.workers,
		Active:  m.active,
	}
	lastErr := m.lastErr
	lastRequest := m.lastRequest
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastRequest != nil {
		copy := *lastRequest
		summary.LastRequest = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastRequest(req *queue.Request) {
	m.mu.Lock()
	if req != nil {
		copy := *req
		m.lastRequest = &copy
	} else {
		m.lastRequest = nil
	}
	m.mu.Unlock()
}

func (m *Manager) trackActive(delta int) {
	m.mu.Lock()
	m.active += delta
	m.mu.Unlock()
}
