package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/logs"
	"tunely/internal/workflow"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var requestID string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			query := logQuery{
				Limit:     lines,
				Tail:      true,
				RequestID: strings.TrimSpace(requestID),
				Component: strings.TrimSpace(component),
			}
			if query.Limit <= 0 {
				query.Limit = 200
			}

			runCtx := commandCtx(cmd)
			printed := false
			for {
				resp, err := client.Logs(runCtx, query)
				if err != nil {
					if errors.Is(err, errAPIUnavailable) {
						if query.RequestID != "" && !printed {
							return printRequestLogFile(runCtx, cmd.OutOrStdout(), cfg, query.RequestID, lines, follow)
						}
						return fmt.Errorf("%w at %s; start it with `tunely serve`", err, client.base.Host)
					}
					if runCtx.Err() != nil {
						return nil
					}
					return err
				}
				for _, evt := range resp.Events {
					fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
					}
					return nil
				}
				query.Since = resp.Next
				query.Limit = 200
				query.Tail = false
				query.Follow = true
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show")
	cmd.Flags().StringVarP(&requestID, "request", "r", "", "Only show records for one request (reads its log file when the daemon is down)")
	cmd.Flags().StringVar(&component, "component", "", "Only show records from one component")
	return cmd
}

// printRequestLogFile reads <log_dir>/requests/<id>.log directly when the
// daemon is not reachable.
func printRequestLogFile(ctx context.Context, out io.Writer, cfg *config.Config, requestID string, lines int, follow bool) error {
	path := workflow.NewRequestLogger(cfg, nil).Path(requestID)
	if lines <= 0 {
		lines = 200
	}
	result, err := logs.Tail(path, lines)
	if err != nil {
		return err
	}
	emit := func(line string) {
		if evt, ok := logs.ParseRecord(line); ok {
			line = formatLogEvent(evt)
		}
		fmt.Fprintln(out, line)
	}
	for _, line := range result.Lines {
		emit(line)
	}
	if !follow {
		if len(result.Lines) == 0 {
			fmt.Fprintln(out, "No log entries available")
		}
		return nil
	}
	return logs.Follow(ctx, path, result.Offset, 0, emit)
}

func formatLogEvent(evt api.LogEvent) string {
	ts := evt.Timestamp
	if t := api.ParseRequestTime(evt.Timestamp); !t.IsZero() {
		ts = t.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if subject := composeSubject(evt.RequestID, evt.Stage); subject != "" {
		line += " " + subject
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " - " + message
	}
	return line
}

func composeSubject(requestID, stage string) string {
	requestID = api.ShortID(requestID)
	stage = strings.TrimSpace(stage)
	switch {
	case requestID != "" && stage != "":
		return fmt.Sprintf("%s (%s)", requestID, stage)
	case requestID != "":
		return requestID
	default:
		return stage
	}
}
