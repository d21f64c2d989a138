package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"tunely/internal/encoding"
	"tunely/internal/logging"
	"tunely/internal/queue"
	"tunely/internal/services"
	"tunely/internal/services/separator"
	"tunely/internal/styles"
	"tunely/internal/subtitles"
	"tunely/internal/timing"
)

// Separator splits a song into instrumental and vocal stems.
type Separator interface {
	Separate(ctx context.Context, input, outputDir string) (separator.Stems, error)
}

// Transcriber produces word timings for a vocal stem.
type Transcriber interface {
	Transcribe(ctx context.Context, vocalPath, workDir string) ([]timing.TimedWord, error)
}

// Diarizer labels each word with the singer who voiced it.
type Diarizer interface {
	Diarize(ctx context.Context, vocalPath string, words []timing.TimedWord, workDir string) ([]timing.TimedWord, error)
}

// Assembler encodes the final karaoke video.
type Assembler interface {
	Assemble(ctx context.Context, req encoding.Request) (encoding.Result, error)
}

// Transition describes one state change of a request.
type Transition struct {
	RequestID string
	From      queue.Status
	To        queue.Status
	Artifacts queue.Artifacts
	Failure   *queue.Failure
}

// Recorder persists transitions. A recorder error stops the run.
type Recorder interface {
	Record(ctx context.Context, t Transition) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, t Transition) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, t Transition) error { return f(ctx, t) }

// Options wires the collaborators and settings of a Pipeline.
type Options struct {
	Separator   Separator
	Transcriber Transcriber
	Diarizer    Diarizer
	Assembler   Assembler

	Styles          *styles.Set
	Mapping         styles.Mapping
	MaxWordsPerLine int
	LeadInSeconds   float64
	PlayResX        int
	PlayResY        int
	Title           string

	// WorkRoot holds per-request scratch directories for stems and
	// transcripts. OutputDir receives the subtitle file and video.
	WorkRoot  string
	OutputDir string

	Recorder Recorder
	Logger   *slog.Logger
}

// Job is one pipeline input.
type Job struct {
	RequestID      string
	InputAudio     string
	BackgroundPath string
	// Logger, when set, receives this run's records instead of the
	// pipeline logger.
	Logger *slog.Logger
}

// Result is the terminal state of a run. Failure is set only when Status is
// FAILED; Artifacts holds every path produced before the run stopped.
type Result struct {
	RequestID      string
	Status         queue.Status
	Artifacts      queue.Artifacts
	Failure        *queue.Failure
	WordCount      int
	LineCount      int
	UsedBackground bool
	Duration       time.Duration
}

// Pipeline runs the karaoke state machine for one request at a time per call.
// Calls for different requests may run concurrently.
type Pipeline struct {
	opts    Options
	builder *subtitles.Builder
	logger  *slog.Logger
}

// New validates options and constructs a Pipeline.
func New(opts Options) (*Pipeline, error) {
	missing := make([]string, 0, 4)
	if opts.Separator == nil {
		missing = append(missing, "separator")
	}
	if opts.Transcriber == nil {
		missing = append(missing, "transcriber")
	}
	if opts.Diarizer == nil {
		missing = append(missing, "diarizer")
	}
	if opts.Assembler == nil {
		missing = append(missing, "assembler")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing %s", strings.Join(missing, ", "))
	}
	if strings.TrimSpace(opts.WorkRoot) == "" || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.New("pipeline: work root and output dir are required")
	}
	if opts.MaxWordsPerLine <= 0 {
		opts.MaxWordsPerLine = timing.DefaultMaxWordsPerLine
	}
	if opts.Styles == nil {
		set, err := styles.NewSet(styles.DefaultSpecs())
		if err != nil {
			return nil, fmt.Errorf("pipeline: default styles: %w", err)
		}
		opts.Styles = set
	}
	if opts.Mapping == nil {
		opts.Mapping = styles.DefaultMapping()
	}
	if err := opts.Styles.CheckMapping(opts.Mapping); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	builder := subtitles.NewBuilder(opts.Styles, styles.NewResolver(opts.Mapping),
		subtitles.WithLeadIn(opts.LeadInSeconds),
		subtitles.WithPlayRes(opts.PlayResX, opts.PlayResY),
		subtitles.WithTitle(opts.Title),
		subtitles.WithLogger(opts.Logger),
	)
	return &Pipeline{
		opts:    opts,
		builder: builder,
		logger:  logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// SubtitlePath returns where the subtitle track of a request is written.
func (p *Pipeline) SubtitlePath(requestID string) string {
	return filepath.Join(p.opts.OutputDir, requestID+".ass")
}

// VideoPath returns where the video of a request is written.
func (p *Pipeline) VideoPath(requestID string) string {
	return filepath.Join(p.opts.OutputDir, requestID+".mp4")
}

// WorkDir returns the scratch directory of a request.
func (p *Pipeline) WorkDir(requestID string) string {
	return filepath.Join(p.opts.WorkRoot, requestID)
}

// run carries the state of one request through the stages.
type run struct {
	job       Job
	logger    *slog.Logger
	status    queue.Status
	artifacts queue.Artifacts
	words     []timing.TimedWord
	lines     []timing.Line
	doc       subtitles.Document
	encoded   encoding.Result
}

type stage struct {
	status queue.Status
	exec   func(ctx context.Context, r *run) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{status: queue.StatusSeparating, exec: p.separate},
		{status: queue.StatusTranscribing, exec: p.transcribe},
		{status: queue.StatusDiarizing, exec: p.diarize},
		{status: queue.StatusBuildingSubtitles, exec: p.buildSubtitles},
		{status: queue.StatusEncoding, exec: p.encode},
	}
}

// Run drives a request from RECEIVED to DONE or FAILED. Stages run strictly
// in order and the first failure ends the run; files already written stay on
// disk. The returned error is the failing stage's error, or nil on DONE.
// Canceling ctx fails the request in whichever stage is active.
func (p *Pipeline) Run(ctx context.Context, job Job) (Result, error) {
	started := time.Now()
	job.RequestID = strings.TrimSpace(job.RequestID)
	ctx = services.WithRequestID(ctx, job.RequestID)
	r := &run{
		job:       job,
		logger:    p.logger,
		status:    queue.StatusReceived,
		artifacts: queue.Artifacts{InputAudio: job.InputAudio},
	}
	if job.Logger != nil {
		r.logger = logging.NewComponentLogger(job.Logger, "pipeline")
	}
	logger := logging.WithContext(ctx, r.logger)

	finish := func(failure *queue.Failure, err error) (Result, error) {
		res := Result{
			RequestID:      job.RequestID,
			Status:         r.status,
			Artifacts:      r.artifacts,
			Failure:        failure,
			WordCount:      len(r.words),
			LineCount:      len(r.lines),
			UsedBackground: r.encoded.UsedBackground,
			Duration:       time.Since(started),
		}
		return res, err
	}

	if job.RequestID == "" || strings.TrimSpace(job.InputAudio) == "" {
		err := services.Wrap(services.ErrInputInvalid, "received", "validate", "request id and input audio are required", nil)
		failure := p.fail(ctx, r, "received", err)
		return finish(failure, err)
	}

	logger.Info("karaoke request started",
		logging.String(logging.FieldEventType, "request_start"),
		logging.String("input", job.InputAudio),
	)

	for _, stg := range p.stages() {
		stageName := stg.status.Stage()
		stageCtx := services.WithStage(ctx, stageName)
		if err := ctx.Err(); err != nil {
			wrapped := services.Wrap(services.ErrCanceled, stageName, "start", "request canceled", err)
			return finish(p.fail(stageCtx, r, stageName, wrapped), wrapped)
		}
		if err := p.advance(stageCtx, r, stg.status); err != nil {
			return finish(p.fail(stageCtx, r, stageName, err), err)
		}

		stageLogger := logging.WithContext(stageCtx, r.logger)
		stageStart := time.Now()
		stageLogger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.String("processing_status", string(stg.status)),
		)
		if err := stg.exec(stageCtx, r); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, services.ErrCanceled) {
				err = services.Wrap(services.ErrCanceled, stageName, "run", "request canceled", errors.Join(ctxErr, err))
			}
			return finish(p.fail(stageCtx, r, stageName, err), err)
		}
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", time.Since(stageStart)),
		)
	}

	if err := p.advance(ctx, r, queue.StatusDone); err != nil {
		return finish(p.fail(ctx, r, queue.StatusEncoding.Stage(), err), err)
	}
	logger.Info("karaoke request complete",
		logging.String(logging.FieldEventType, "request_complete"),
		logging.String("video", r.artifacts.OutputVideo),
		logging.Int("words", len(r.words)),
		logging.Int("lines", len(r.lines)),
		logging.Duration("duration", time.Since(started)),
	)
	return finish(nil, nil)
}

func (p *Pipeline) advance(ctx context.Context, r *run, to queue.Status) error {
	if !queue.CanTransition(r.status, to) {
		return services.Wrap(services.ErrBuildInvariant, to.Stage(), "transition",
			fmt.Sprintf("illegal transition %s -> %s", r.status, to), nil)
	}
	if err := p.record(ctx, Transition{RequestID: r.job.RequestID, From: r.status, To: to, Artifacts: r.artifacts}); err != nil {
		return services.Wrap(services.ErrConfiguration, to.Stage(), "record", "persist transition", err)
	}
	r.status = to
	return nil
}

func (p *Pipeline) fail(ctx context.Context, r *run, stageName string, err error) *queue.Failure {
	failure := queue.FailureFromError(stageName, err)
	from := r.status
	r.status = queue.StatusFailed

	logger := logging.WithContext(ctx, r.logger)
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("failed_stage", failure.Stage),
		logging.String("failure_kind", failure.Kind),
		logging.Bool("recoverable", failure.Recoverable),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintForKind(failure.Kind)),
	)

	if from.IsTerminal() {
		return failure
	}
	recordCtx := ctx
	if ctx.Err() != nil {
		recordCtx = context.WithoutCancel(ctx)
	}
	if recErr := p.record(recordCtx, Transition{RequestID: r.job.RequestID, From: from, To: queue.StatusFailed, Artifacts: r.artifacts, Failure: failure}); recErr != nil {
		logger.Error("failed to persist stage failure", logging.Error(recErr))
	}
	return failure
}

func (p *Pipeline) record(ctx context.Context, t Transition) error {
	if p.opts.Recorder == nil || t.RequestID == "" {
		return nil
	}
	return p.opts.Recorder.Record(ctx, t)
}

func hintForKind(kind string) string {
	switch kind {
	case services.KindInputInvalid:
		return "check the uploaded audio file"
	case services.KindDependencyMissing:
		return "install the missing tool and run tunely status"
	case services.KindEncodeFailure:
		return "inspect the ffmpeg stderr in the failure reason"
	case services.KindCollaboratorFailure:
		return "inspect the separator or whisperx output in the work directory"
	case services.KindBuildInvariant:
		return "check the style and speaker configuration"
	case services.KindCanceled:
		return "resubmit the song"
	default:
		return "check tunely configuration"
	}
}
