package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tunely/internal/logging"
)

func mkdirAged(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	return dir
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	root := t.TempDir()
	oldDir := mkdirAged(t, root, "old-request", 2*time.Hour)
	recentDir := mkdirAged(t, root, "recent-request", 0)

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleDisabled(t *testing.T) {
	root := t.TempDir()
	dir := mkdirAged(t, root, "old-request", 48*time.Hour)

	result := CleanStale(context.Background(), root, 0, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals, got %v", result.Removed)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("directory should still exist")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	root := t.TempDir()
	oldFile := filepath.Join(root, "old-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, stamp, stamp); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestCleanStaleStopsOnCanceledContext(t *testing.T) {
	root := t.TempDir()
	mkdirAged(t, root, "old-request", 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := CleanStale(ctx, root, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected canceled sweep to remove nothing, got %v", result.Removed)
	}
}

func TestCleanOrphanedRemovesUnknownRequests(t *testing.T) {
	root := t.TempDir()
	knownDir := mkdirAged(t, root, "req-known", 0)
	unknownDir := mkdirAged(t, root, "req-gone", 0)

	result := CleanOrphaned(context.Background(), root, map[string]struct{}{"req-known": {}}, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != unknownDir {
		t.Fatalf("expected %s removed, got %v", unknownDir, result.Removed)
	}
	if _, err := os.Stat(knownDir); err != nil {
		t.Error("known directory should still exist")
	}
}

func TestCleanOrphanedEmptyRoot(t *testing.T) {
	for _, dir := range []string{"", "   "} {
		result := CleanOrphaned(context.Background(), dir, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestMeasureUsage(t *testing.T) {
	root := t.TempDir()
	dir := mkdirAged(t, root, "req-1", 0)
	mkdirAged(t, root, "req-2", 0)
	if err := os.WriteFile(filepath.Join(dir, "vocals.wav"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	usage, err := MeasureUsage(root)
	if err != nil {
		t.Fatalf("MeasureUsage: %v", err)
	}
	if usage.Directories != 2 || usage.Bytes != 5 {
		t.Fatalf("usage = %+v, want 2 dirs and 5 bytes", usage)
	}

	missing, err := MeasureUsage(filepath.Join(root, "missing"))
	if err != nil || missing.Directories != 0 {
		t.Fatalf("missing root: %+v, %v", missing, err)
	}
}
