package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunely/internal/logging"
	"tunely/internal/testsupport"
)

func TestStatusCommandWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewRequest(t, env.store, env.cfg, "queued.mp3")

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"System Status", "not running", "Dependencies", "FFmpeg", "Upload directory", "RECEIVED"} {
		requireContains(t, out, want)
	}

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var snapshot statusSnapshot
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if snapshot.Daemon.Running {
		t.Fatal("expected daemon to be reported as stopped")
	}
	if snapshot.Requests["RECEIVED"] != 1 || snapshot.Requests["DONE"] != 0 {
		t.Fatalf("unexpected request counts %v", snapshot.Requests)
	}
	if len(snapshot.Dependencies) == 0 || len(snapshot.Checks) == 0 {
		t.Fatalf("expected dependencies and checks, got %+v", snapshot)
	}
}

func TestStatusAndLogsWithRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	hub := logging.NewStreamHub(256)
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: io.Discard, Hub: hub})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	d, err := buildDaemon(env.cfg, env.store, logger, hub)
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		d.Stop()
	})
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	env.cfg.Paths.APIBind = d.Address()
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var snapshot statusSnapshot
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !snapshot.Daemon.Running || !snapshot.Daemon.Reachable {
		t.Fatalf("expected reachable daemon, got %+v", snapshot.Daemon)
	}
	if snapshot.Daemon.Workflow == nil || !snapshot.Daemon.Workflow.Running {
		t.Fatalf("expected running workflow, got %+v", snapshot.Daemon.Workflow)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "50"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "tunely daemon started")

	out, _, err = runCLI(t, []string{"logs", "--component", "nothing-logs-here"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --component: %v", err)
	}
	requireContains(t, out, "No log entries available")
}

func TestLogsWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIBind = "127.0.0.1:1"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err == nil {
		t.Fatal("expected logs to fail without a daemon")
	}
	requireContains(t, err.Error(), "tunely serve")
}

func TestLogsReadsRequestFileWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIBind = "127.0.0.1:1"
	writeTestConfig(t, env.configPath, env.cfg)

	dir := filepath.Join(env.cfg.Paths.LogDir, "requests")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"stage started","component":"pipeline","request_id":"req-12345678","stage":"separating"}
{"time":"2026-03-01T10:00:05Z","level":"ERROR","msg":"separator exited","component":"pipeline","request_id":"req-12345678","stage":"separating"}
`
	if err := os.WriteFile(filepath.Join(dir, "req-12345678.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-r", "req-12345678", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "ERROR [pipeline]")
	requireContains(t, out, "separator exited")
	if strings.Contains(out, "stage started") {
		t.Fatalf("expected only the last line, got %q", out)
	}
}
