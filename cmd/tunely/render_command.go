package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/fileutil"
	"tunely/internal/logging"
	"tunely/internal/pipeline"
	"tunely/internal/queue"
	"tunely/internal/textutil"
)

type renderReport struct {
	RequestID       string        `json:"request_id"`
	Status          string        `json:"status"`
	Artifacts       api.Artifacts `json:"artifacts"`
	Failure         *api.Failure  `json:"failure,omitempty"`
	WordCount       int           `json:"word_count"`
	LineCount       int           `json:"line_count"`
	UsedBackground  bool          `json:"used_background"`
	DurationSeconds float64       `json:"duration_seconds"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var background string
	var requestID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "render <audio>",
		Short: "Render a karaoke video in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job, err := prepareRenderJob(cfg, args[0], background, requestID)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			p, err := pipeline.NewFromConfig(cfg, logger, nil)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout := cfg.RequestTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			res, runErr := p.Run(runCtx, job)
			report := newRenderReport(res)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printRenderReport(cmd.OutOrStdout(), report)
			}
			if runErr != nil {
				return &requestFailedError{id: job.RequestID, err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&background, "background", "", "Background video (defaults to [paths].background_video)")
	cmd.Flags().StringVar(&requestID, "id", "", "Request identifier (defaults to a new UUID)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

// prepareRenderJob copies the audio into the upload directory under the same
// <id>_<name> layout the HTTP intake uses, then describes the run.
func prepareRenderJob(cfg *config.Config, audioPath, background, requestID string) (pipeline.Job, error) {
	source, err := config.ExpandPath(strings.TrimSpace(audioPath))
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("resolve audio path: %w", err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("audio file: %w", err)
	}
	if info.IsDir() {
		return pipeline.Job{}, fmt.Errorf("audio file: %s is a directory", source)
	}
	name := textutil.SecureFileName(filepath.Base(source))
	if !textutil.AllowedAudioExtension(name) {
		return pipeline.Job{}, fmt.Errorf("audio file: extension %q not allowed (use %s)",
			filepath.Ext(name), strings.Join(textutil.AllowedAudioExtensions, ", "))
	}

	id := strings.TrimSpace(requestID)
	if id == "" {
		id = queue.NewRequestID()
	} else if textutil.SecureFileName(id) != id {
		return pipeline.Job{}, fmt.Errorf("request id %q may only contain letters, digits, '.', '_' and '-'", id)
	}

	target := filepath.Join(cfg.Paths.UploadDir, id+"_"+name)
	if err := fileutil.CopyFileVerified(source, target); err != nil {
		return pipeline.Job{}, fmt.Errorf("stage audio: %w", err)
	}

	bg := strings.TrimSpace(background)
	if bg == "" {
		bg = cfg.Paths.BackgroundVideo
	} else if bg, err = config.ExpandPath(bg); err != nil {
		return pipeline.Job{}, fmt.Errorf("resolve background path: %w", err)
	}

	return pipeline.Job{
		RequestID:      id,
		InputAudio:     target,
		BackgroundPath: bg,
	}, nil
}

func newRenderReport(res pipeline.Result) renderReport {
	report := renderReport{
		RequestID: res.RequestID,
		Status:    string(res.Status),
		Artifacts: api.Artifacts{
			InputAudio:        res.Artifacts.InputAudio,
			InstrumentalAudio: res.Artifacts.InstrumentalAudio,
			VocalAudio:        res.Artifacts.VocalAudio,
			SubtitleFile:      res.Artifacts.SubtitleFile,
			OutputVideo:       res.Artifacts.OutputVideo,
		},
		WordCount:       res.WordCount,
		LineCount:       res.LineCount,
		UsedBackground:  res.UsedBackground,
		DurationSeconds: res.Duration.Seconds(),
	}
	if res.Failure != nil {
		report.Failure = &api.Failure{
			Stage:       res.Failure.Stage,
			Kind:        res.Failure.Kind,
			Reason:      res.Failure.Reason,
			Recoverable: res.Failure.Recoverable,
		}
	}
	return report
}

func printRenderReport(out io.Writer, r renderReport) {
	fmt.Fprintf(out, "Request:      %s\n", r.RequestID)
	fmt.Fprintf(out, "Status:       %s\n", r.Status)
	if r.Failure != nil {
		fmt.Fprintf(out, "Failed stage: %s\n", r.Failure.Stage)
		fmt.Fprintf(out, "Kind:         %s\n", r.Failure.Kind)
		fmt.Fprintf(out, "Reason:       %s\n", r.Failure.Reason)
		fmt.Fprintf(out, "Recoverable:  %s\n", yesNo(r.Failure.Recoverable))
	}
	if r.Artifacts.SubtitleFile != "" {
		fmt.Fprintf(out, "Subtitles:    %s\n", r.Artifacts.SubtitleFile)
	}
	if r.Artifacts.OutputVideo != "" {
		fmt.Fprintf(out, "Video:        %s\n", r.Artifacts.OutputVideo)
	}
	if r.WordCount > 0 {
		fmt.Fprintf(out, "Words/lines:  %d/%d\n", r.WordCount, r.LineCount)
	}
	if r.Failure == nil {
		fmt.Fprintf(out, "Background:   %s\n", yesNo(r.UsedBackground))
	}
	fmt.Fprintf(out, "Duration:     %.1fs\n", r.DurationSeconds)
}

// requestFailedError marks a render that ran and ended FAILED.
type requestFailedError struct {
	id  string
	err error
}

func (e *requestFailedError) Error() string {
	return fmt.Sprintf("render %s failed: %v", e.id, e.err)
}

func (e *requestFailedError) Unwrap() error { return e.err }
