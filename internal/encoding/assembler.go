package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tunely/internal/logging"
	"tunely/internal/media/ffprobe"
	"tunely/internal/services"
)

const (
	stageName        = "encoding"
	stderrTailLength = 2048
)

// Request names the inputs and destination of one karaoke encode.
type Request struct {
	AudioPath      string
	SubtitlePath   string
	OutputPath     string
	BackgroundPath string
}

// Result captures the encoder run. Stderr is populated on failure so callers
// can surface diagnostics.
type Result struct {
	OutputPath     string
	UsedBackground bool
	Args           []string
	ExitCode       int
	Stdout         string
	Stderr         string
}

// BackgroundProber inspects a candidate background file.
type BackgroundProber interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Assembler composites background, instrumental audio and subtitles with ffmpeg.
type Assembler struct {
	binary   string
	preset   Preset
	logger   *slog.Logger
	run      services.CommandRunner
	lookPath func(string) (string, error)
	prober   BackgroundProber
}

// NewAssembler constructs an Assembler for the given ffmpeg binary.
func NewAssembler(binary string, preset Preset, logger *slog.Logger) *Assembler {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Assembler{
		binary:   binary,
		preset:   preset,
		logger:   logging.NewComponentLogger(logger, "assembler"),
		run:      services.RunCommand,
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (a *Assembler) WithCommandRunner(r services.CommandRunner) *Assembler {
	if a != nil && r != nil {
		a.run = r
	}
	return a
}

// WithBackgroundProber enables stream checks on background files.
func (a *Assembler) WithBackgroundProber(p BackgroundProber) *Assembler {
	if a != nil {
		a.prober = p
	}
	return a
}

// Binary returns the ffmpeg executable the assembler runs.
func (a *Assembler) Binary() string {
	return a.binary
}

// Preset returns the encoder settings.
func (a *Assembler) Preset() Preset {
	return a.preset
}

// Assemble encodes the karaoke video. The output is written to a hidden
// sibling file and renamed into place only after ffmpeg exits cleanly, so
// OutputPath never holds a partial encode.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Result, error) {
	if a == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "assemble", "assembler not initialized", nil)
	}
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if err := a.preset.Validate(); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "preset", "invalid encoder preset", err)
	}
	binary, err := a.lookPath(a.binary)
	if err != nil {
		return Result{}, services.Wrap(services.ErrDependencyMissing, stageName, "lookup", fmt.Sprintf("%s not found on PATH", a.binary), err)
	}

	useBackground := a.backgroundUsable(ctx, req.BackgroundPath)
	tmpPath := partialPath(req.OutputPath)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrEncodeFailure, stageName, "prepare", "create output directory", err)
	}

	args := BuildArgs(a.preset, req, tmpPath, useBackground)
	result := Result{UsedBackground: useBackground, Args: args}

	logger := logging.WithContext(ctx, a.logger)
	logger.Info("launching ffmpeg encode",
		logging.String(logging.FieldEventType, "encode_start"),
		logging.String("command", a.binary+" "+strings.Join(args, " ")),
		logging.Bool("background", useBackground),
	)

	res, runErr := a.run(ctx, binary, args...)
	result.ExitCode = res.ExitCode
	result.Stdout = res.Stdout
	result.Stderr = res.Stderr
	if runErr != nil {
		_ = os.Remove(tmpPath)
		return result, services.Wrap(services.ErrEncodeFailure, stageName, "ffmpeg", "run encoder", runErr)
	}
	if res.ExitCode != 0 {
		_ = os.Remove(tmpPath)
		tail := tailString(res.Stderr, stderrTailLength)
		logger.Warn("ffmpeg exited with error",
			logging.String(logging.FieldEventType, "encode_failed"),
			logging.Int("exit_code", res.ExitCode),
			logging.String("stderr_tail", tail),
			logging.String(logging.FieldErrorHint, "inspect ffmpeg stderr; check the subtitle and audio paths"),
		)
		return result, services.Wrap(services.ErrEncodeFailure, stageName, "ffmpeg",
			fmt.Sprintf("exit status %d: %s", res.ExitCode, tail), nil)
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(tmpPath)
		if err == nil {
			err = errors.New("empty output")
		}
		return result, services.Wrap(services.ErrEncodeFailure, stageName, "ffmpeg", "encoder produced no output", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return result, services.Wrap(services.ErrEncodeFailure, stageName, "finalize", "move encoded video into place", err)
	}
	result.OutputPath = req.OutputPath

	logger.Info("video assembled",
		logging.String(logging.FieldEventType, "encode_complete"),
		logging.String("output", req.OutputPath),
		logging.Int64("size_bytes", info.Size()),
	)
	return result, nil
}

func (a *Assembler) backgroundUsable(ctx context.Context, path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	reject := func(reason string, attrs ...logging.Attr) bool {
		attrs = append(attrs,
			logging.String("background", path),
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "video uses a flat color background"),
		)
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "background not usable", "background_rejected", attrs...)
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return reject("stat failed", logging.Error(err))
	}
	if !info.Mode().IsRegular() {
		return reject("not a regular file")
	}
	if a.prober == nil {
		return true
	}
	probe, err := a.prober.Inspect(ctx, path)
	if err != nil {
		return reject("probe failed", logging.Error(err))
	}
	if !probe.HasMotionVideo() {
		return reject("no video stream")
	}
	return true
}

func validateRequest(req Request) error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(req.AudioPath) == "" {
		missing = append(missing, "audio path")
	}
	if strings.TrimSpace(req.SubtitlePath) == "" {
		missing = append(missing, "subtitle path")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		missing = append(missing, "output path")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrInputInvalid, stageName, "validate", strings.Join(missing, ", ")+" required", nil)
	}
	return nil
}

func partialPath(output string) string {
	return filepath.Join(filepath.Dir(output), ".partial-"+filepath.Base(output))
}

func tailString(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
