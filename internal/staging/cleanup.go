package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tunely/internal/logging"
)

// CleanResult contains the outcome of a cleanup sweep.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes scratch directories last modified more than maxAge ago.
// A non-positive maxAge disables the sweep.
func CleanStale(ctx context.Context, workRoot string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	if maxAge <= 0 {
		return CleanResult{}
	}
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, workRoot, logger, "stale", func(entry fs.DirEntry) (bool, error) {
		info, err := entry.Info()
		if err != nil {
			return false, err
		}
		return info.ModTime().Before(cutoff), nil
	})
}

// CleanOrphaned removes scratch directories that are not named after one of
// the known request IDs.
func CleanOrphaned(ctx context.Context, workRoot string, known map[string]struct{}, logger *slog.Logger) CleanResult {
	return sweep(ctx, workRoot, logger, "orphaned", func(entry fs.DirEntry) (bool, error) {
		_, ok := known[entry.Name()]
		return !ok, nil
	})
}

func sweep(ctx context.Context, workRoot string, logger *slog.Logger, reason string, remove func(fs.DirEntry) (bool, error)) CleanResult {
	result := CleanResult{}

	workRoot = strings.TrimSpace(workRoot)
	if workRoot == "" {
		return result
	}
	entries, err := os.ReadDir(workRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: workRoot, Error: err})
		}
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(workRoot, entry.Name())
		ok, err := remove(entry)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !ok {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logger.Warn("failed to remove "+reason+" work directory",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "work_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed "+reason+" work directory",
			logging.String("path", dirPath),
			logging.String(logging.FieldEventType, "work_cleanup"),
		)
	}
	return result
}

// Usage summarizes the scratch directories under the work root.
type Usage struct {
	Directories int   `json:"directories"`
	Bytes       int64 `json:"bytes"`
}

// MeasureUsage counts scratch directories and their total size. A missing
// work root reports zero usage.
func MeasureUsage(workRoot string) (Usage, error) {
	var usage Usage
	workRoot = strings.TrimSpace(workRoot)
	if workRoot == "" {
		return usage, nil
	}
	entries, err := os.ReadDir(workRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return usage, nil
		}
		return usage, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		usage.Directories++
		usage.Bytes += dirSize(filepath.Join(workRoot, entry.Name()))
	}
	return usage, nil
}

// dirSize is best effort; unreadable entries are skipped.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
