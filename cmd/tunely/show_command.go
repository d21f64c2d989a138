package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one request's status, artifacts and failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				req, err := findRequest(commandCtx(cmd), store, args[0])
				if err != nil {
					return err
				}
				dto := api.FromRequest(req)
				if jsonOutput {
					return writeJSON(cmd, dto)
				}
				printRequest(cmd.OutOrStdout(), dto)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the request as JSON")
	return cmd
}

// findRequest resolves a full request ID or an unambiguous prefix of one.
func findRequest(ctx context.Context, store *queue.Store, id string) (*queue.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("request id is required")
	}
	req, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req != nil {
		return req, nil
	}

	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*queue.Request
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, id) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("request %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("request prefix %s is ambiguous (%d matches)", id, len(matches))
	}
}

func printRequest(out io.Writer, req api.Request) {
	fmt.Fprintf(out, "ID:           %s\n", req.ID)
	fmt.Fprintf(out, "Name:         %s\n", req.Name)
	fmt.Fprintf(out, "Status:       %s\n", req.Status)
	if req.Stage != "" {
		fmt.Fprintf(out, "Stage:        %s\n", req.Stage)
	}
	if f := req.Failure; f != nil {
		fmt.Fprintf(out, "Failed stage: %s\n", f.Stage)
		fmt.Fprintf(out, "Kind:         %s\n", f.Kind)
		fmt.Fprintf(out, "Reason:       %s\n", f.Reason)
		fmt.Fprintf(out, "Recoverable:  %s\n", yesNo(f.Recoverable))
	}

	artifacts := [][2]string{
		{"Input", req.Artifacts.InputAudio},
		{"Instrumental", req.Artifacts.InstrumentalAudio},
		{"Vocals", req.Artifacts.VocalAudio},
		{"Subtitles", req.Artifacts.SubtitleFile},
		{"Video", req.Artifacts.OutputVideo},
	}
	for _, a := range artifacts {
		if a[1] != "" {
			fmt.Fprintf(out, "%-13s %s\n", a[0]+":", a[1])
		}
	}
	if req.VideoURL != "" {
		fmt.Fprintf(out, "Video URL:    %s\n", req.VideoURL)
	}
	if req.PublishedURL != "" {
		fmt.Fprintf(out, "Published:    %s\n", req.PublishedURL)
	}
	fmt.Fprintf(out, "Created:      %s\n", formatUpdated(req.CreatedAt))
	fmt.Fprintf(out, "Updated:      %s\n", formatUpdated(req.UpdatedAt))
	if req.FinishedAt != "" {
		fmt.Fprintf(out, "Finished:     %s\n", formatUpdated(req.FinishedAt))
	}
}
