package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/preflight"
	"tunely/internal/queue"
	"tunely/internal/staging"
)

type statusSnapshot struct {
	Daemon       daemonState            `json:"daemon"`
	Dependencies []api.DependencyStatus `json:"dependencies"`
	Checks       []api.CheckResult      `json:"checks"`
	Requests     map[string]int         `json:"requests"`
	Work         staging.Usage          `json:"work"`
}

type daemonState struct {
	Running   bool                `json:"running"`
	Reachable bool                `json:"reachable"`
	Address   string              `json:"address,omitempty"`
	Workflow  *api.WorkflowStatus `json:"workflow,omitempty"`
	Detail    string              `json:"detail,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory and request status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				snapshot, err := buildStatusSnapshot(commandCtx(cmd), cfg, store)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, snapshot)
				}
				printStatus(cmd.OutOrStdout(), snapshot)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

func buildStatusSnapshot(ctx context.Context, cfg *config.Config, store *queue.Store) (statusSnapshot, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return statusSnapshot{}, fmt.Errorf("request stats: %w", err)
	}
	work, err := staging.MeasureUsage(cfg.WorkRoot())
	if err != nil {
		return statusSnapshot{}, fmt.Errorf("work usage: %w", err)
	}
	return statusSnapshot{
		Daemon:       probeDaemon(ctx, cfg),
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(ctx, cfg)),
		Checks:       api.FromChecks(preflight.RunAll(ctx, cfg)),
		Requests:     api.MergeQueueStats(stats),
		Work:         work,
	}, nil
}

// probeDaemon treats a held lock file as a running daemon, then asks its API
// for workflow details.
func probeDaemon(ctx context.Context, cfg *config.Config) daemonState {
	lock := flock.New(cfg.LockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return daemonState{Detail: fmt.Sprintf("lock check failed: %v", err)}
	}
	if acquired {
		_ = lock.Unlock()
		return daemonState{Detail: "not running"}
	}

	state := daemonState{Running: true}
	client, err := newAPIClient(cfg)
	if err != nil {
		state.Detail = "API address not configured"
		return state
	}
	state.Address = client.base.String()
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	health, err := client.Health(probeCtx)
	if err != nil {
		if errors.Is(err, errAPIUnavailable) {
			state.Detail = "API unreachable at " + state.Address
		} else {
			state.Detail = err.Error()
		}
		return state
	}
	state.Reachable = true
	state.Workflow = &health.Workflow
	return state
}

func printStatus(out io.Writer, s statusSnapshot) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, daemonStatusLine(s.Daemon, colorize))
	fmt.Fprintln(out, renderStatusLine("Work files", statusInfo, formatWorkUsage(s.Work), colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range dependencyLines(s.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range s.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Requests", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := buildRequestStatusRows(s.Requests)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No requests")
		return
	}
	fmt.Fprintln(out, renderTable([]tableColumn{leftColumn("Status"), rightColumn("Count")}, rows))
}

func formatWorkUsage(u staging.Usage) string {
	if u.Directories == 0 {
		return "None"
	}
	return fmt.Sprintf("%d directories, %s", u.Directories, humanize.IBytes(uint64(max(u.Bytes, 0))))
}

func daemonStatusLine(state daemonState, colorize bool) string {
	switch {
	case !state.Running:
		return renderStatusLine("Daemon", statusInfo, state.Detail, colorize)
	case !state.Reachable:
		return renderStatusLine("Daemon", statusWarn, "Running; "+state.Detail, colorize)
	}
	detail := "Running at " + state.Address
	if wf := state.Workflow; wf != nil {
		detail = fmt.Sprintf("%s (%d of %d workers busy)", detail, wf.Active, wf.Workers)
	}
	return renderStatusLine("Daemon", statusOK, detail, colorize)
}

func dependencyLines(deps []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(deps)+1)
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			switch {
			case dep.Path != "":
				message = fmt.Sprintf("Ready (%s)", dep.Path)
			case dep.Command != "":
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

// buildRequestStatusRows lists non-zero counts in lifecycle order.
func buildRequestStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		if count := stats[string(status)]; count > 0 {
			rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
		}
	}
	return rows
}
