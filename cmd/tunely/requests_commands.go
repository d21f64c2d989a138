package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/queue"
)

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List karaoke requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				reqs, err := api.NewRequestService(store).List(commandCtx(cmd), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if reqs == nil {
						reqs = []api.Request{}
					}
					return writeJSON(cmd, api.RequestListResponse{Requests: reqs})
				}
				if len(reqs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests")
					return nil
				}
				name := leftColumn("Name")
				name.maxWidth = 40
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{
					leftColumn("ID"), name, leftColumn("Status"), leftColumn("Stage"), rightColumn("Updated"), leftColumn("Video"),
				}, buildRequestRows(reqs)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print requests as JSON")

	cmd.AddCommand(newRequestsRemoveCommand(ctx))
	return cmd
}

func newRequestsRemoveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove finished requests from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				result, err := api.RemoveRequestsByID(commandCtx(cmd), store, trimArgs(args))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printRemoveResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the outcome as JSON")
	return cmd
}

func parseStatusFilters(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func buildRequestRows(reqs []api.Request) [][]string {
	rows := make([][]string, 0, len(reqs))
	for _, req := range reqs {
		stage := req.Stage
		if req.Failure != nil {
			stage = fmt.Sprintf("%s (%s)", req.Failure.Stage, req.Failure.Kind)
		}
		rows = append(rows, []string{
			req.ID,
			req.Name,
			req.Status,
			stage,
			formatUpdated(req.UpdatedAt),
			req.VideoURL,
		})
	}
	return rows
}

func formatUpdated(value string) string {
	t := api.ParseRequestTime(value)
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

func printRemoveResult(out io.Writer, result api.RemoveRequestsResult) {
	for _, req := range result.Requests {
		switch req.Outcome {
		case api.RemoveNotFound:
			fmt.Fprintf(out, "Request %s not found\n", req.ID)
		case api.RemoveActive:
			fmt.Fprintf(out, "Request %s is still in progress; not removed\n", req.ID)
		case api.RemoveRemoved:
			fmt.Fprintf(out, "Request %s removed\n", req.ID)
		}
	}
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
