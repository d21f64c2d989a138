package workflow

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tunely/internal/config"
	"tunely/internal/logging"
)

// RequestLogger manages dedicated log files for individual requests.
type RequestLogger struct {
	baseDir string
	hub     *logging.StreamHub
	cfg     *config.Config
}

// NewRequestLogger creates a request logger rooted at <log_dir>/requests.
func NewRequestLogger(cfg *config.Config, hub *logging.StreamHub) *RequestLogger {
	dir := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		dir = filepath.Join(cfg.Paths.LogDir, "requests")
	}
	return &RequestLogger{baseDir: dir, hub: hub, cfg: cfg}
}

// Path returns the log file of a request.
func (l *RequestLogger) Path(requestID string) string {
	return filepath.Join(l.baseDir, requestID+".log")
}

// Open creates a JSON logger appending to the request's log file. Records
// are also published to the daemon stream. The returned closer releases the
// file and must be called once the request finishes.
func (l *RequestLogger) Open(requestID string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, nil, errors.New("request id is required")
	}
	if strings.TrimSpace(l.baseDir) == "" {
		return nil, nil, errors.New("request log directory not configured")
	}
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure request log directory: %w", err)
	}
	file, err := os.OpenFile(l.Path(requestID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open request log: %w", err)
	}

	level := "info"
	if l.cfg != nil && strings.TrimSpace(l.cfg.Logging.Level) != "" {
		level = l.cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: "json",
		Writer: file,
		Hub:    l.hub,
	})
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return logger, file, nil
}
