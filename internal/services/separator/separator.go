package separator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tunely/internal/logging"
	"tunely/internal/services"
)

const stageName = "separating"

// Defaults mirror the model the karaoke pipeline was tuned against.
const (
	DefaultCommand      = "uvx"
	DefaultPackage      = "audio-separator"
	DefaultModel        = "UVR-MDX-NET-Inst_HQ_3.onnx"
	DefaultOutputFormat = "wav"
)

// Config captures runtime settings for the separator.
type Config struct {
	Command      string
	Package      string
	Model        string
	OutputFormat string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Command) == "" {
		c.Command = DefaultCommand
	}
	if strings.TrimSpace(c.Package) == "" {
		c.Package = DefaultPackage
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	c.OutputFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.OutputFormat), "."))
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	return c
}

// Stems holds the files produced by a successful separation.
type Stems struct {
	Instrumental string
	Vocals       string
}

// Service runs audio-separator.
type Service struct {
	cfg    Config
	run    services.CommandRunner
	lookup func(stage, name string) (string, error)
	logger *slog.Logger
}

// NewService creates a separator using cfg, filling unset fields with defaults.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg.withDefaults(),
		run:    services.RunCommand,
		lookup: services.LookupBinary,
		logger: logging.NewComponentLogger(logger, "separator"),
	}
}

// WithCommandRunner replaces the process runner (for testing). The binary
// lookup is skipped when a runner is injected.
func (s *Service) WithCommandRunner(runner services.CommandRunner) *Service {
	if runner != nil {
		s.run = runner
		s.lookup = func(_, name string) (string, error) { return name, nil }
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// BuildArgs constructs the uvx arguments for one separation.
func (s *Service) BuildArgs(input, outputDir string) []string {
	return []string{
		"--from", s.cfg.Package,
		"audio-separator",
		input,
		"--model_filename", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", strings.ToUpper(s.cfg.OutputFormat),
	}
}

// Separate splits input into stems written under outputDir. outputDir should
// be private to the request; any stem already present there is picked up.
func (s *Service) Separate(ctx context.Context, input, outputDir string) (Stems, error) {
	info, err := os.Stat(input)
	if err != nil {
		return Stems{}, services.Wrap(services.ErrInputInvalid, stageName, "stat input", "audio file is not readable", err)
	}
	if info.IsDir() {
		return Stems{}, services.Wrap(services.ErrInputInvalid, stageName, "stat input", fmt.Sprintf("%s is a directory", input), nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return Stems{}, services.Wrap(services.ErrConfiguration, stageName, "prepare", "output directory required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Stems{}, services.Wrap(services.ErrConfiguration, stageName, "prepare", "create output directory", err)
	}
	binary, err := s.lookup(stageName, s.cfg.Command)
	if err != nil {
		return Stems{}, err
	}

	logger := logging.WithContext(ctx, s.logger)
	args := s.BuildArgs(input, outputDir)
	logger.Info("separation started",
		logging.String(logging.FieldEventType, "separation_start"),
		logging.String("model", s.cfg.Model),
		logging.String("input", input),
	)
	result, err := s.run(ctx, binary, args...)
	if err != nil {
		return Stems{}, services.Wrap(services.ErrCollaboratorFailure, stageName, "run", "audio-separator did not run", err)
	}
	if result.ExitCode != 0 {
		return Stems{}, services.Wrap(services.ErrCollaboratorFailure, stageName, "run",
			fmt.Sprintf("audio-separator exited with status %d: %s", result.ExitCode, tail(result.Stderr)), nil)
	}

	stems, err := FindStems(outputDir, s.cfg.OutputFormat)
	if err != nil {
		return Stems{}, err
	}
	logger.Info("separation completed",
		logging.String(logging.FieldEventType, "separation_complete"),
		logging.String("instrumental", stems.Instrumental),
		logging.String("vocals", stems.Vocals),
	)
	return stems, nil
}

// FindStems scans dir for separated stems with the given extension. A file
// whose base name contains "instrumental" is the instrumental stem; otherwise
// one containing "vocals" is the vocal stem. Matching is case-insensitive and
// the first file in lexical order wins.
func FindStems(dir, format string) (Stems, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stems{}, services.Wrap(services.ErrCollaboratorFailure, stageName, "scan output", "read output directory", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	ext := "." + strings.ToLower(strings.TrimPrefix(format, "."))
	var stems Stems
	for _, name := range names {
		lower := strings.ToLower(name)
		if format != "" && filepath.Ext(lower) != ext {
			continue
		}
		switch {
		case strings.Contains(lower, "instrumental"):
			if stems.Instrumental == "" {
				stems.Instrumental = filepath.Join(dir, name)
			}
		case strings.Contains(lower, "vocals"):
			if stems.Vocals == "" {
				stems.Vocals = filepath.Join(dir, name)
			}
		}
	}
	if stems.Instrumental == "" || stems.Vocals == "" {
		return stems, services.Wrap(services.ErrCollaboratorFailure, stageName, "scan output",
			fmt.Sprintf("expected instrumental and vocal stems in %s (instrumental=%q vocals=%q)", dir, filepath.Base(stems.Instrumental), filepath.Base(stems.Vocals)), nil)
	}
	return stems, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const limit = 1024
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}
