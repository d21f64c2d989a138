package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	langpkg "tunely/internal/language"
	"tunely/internal/logging"
	"tunely/internal/services"
	"tunely/internal/timing"
)

const (
	transcribeStage = "transcribing"
	diarizeStage    = "diarizing"
)

// Service provides WhisperX transcription and diarization.
type Service struct {
	cfg    Config
	run    services.CommandRunner
	lookup func(stage, name string) (string, error)
	logger *slog.Logger
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = UVXCommand
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = DefaultLanguage
	}
	cfg.HFToken = strings.TrimSpace(cfg.HFToken)
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg,
		run:    services.RunCommandWithEnv(torchLegacyLoad),
		lookup: services.LookupBinary,
		logger: logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing). The binary
// lookup is skipped when a runner is injected.
func (s *Service) WithCommandRunner(runner services.CommandRunner) *Service {
	if runner != nil {
		s.run = runner
		s.lookup = func(_, name string) (string, error) { return name, nil }
	}
	return s
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool { return s.cfg.CUDAEnabled }

// DiarizationAvailable reports whether Diarize will attribute speakers.
func (s *Service) DiarizationAvailable() bool {
	return s.cfg.DiarizeEnabled && s.cfg.HFToken != ""
}

// Transcribe runs WhisperX on the vocal stem and returns its aligned words in
// start order. Words WhisperX could not align (it leaves numerals untimed)
// and blank words are dropped. Zero surviving words is a collaborator failure.
func (s *Service) Transcribe(ctx context.Context, vocalPath, workDir string) ([]timing.TimedWord, error) {
	outputDir := filepath.Join(workDir, "transcript")
	payload, err := s.invoke(ctx, transcribeStage, vocalPath, outputDir, false)
	if err != nil {
		return nil, err
	}
	words, dropped := payload.timedWords()
	logger := logging.WithContext(ctx, s.logger)
	if len(words) == 0 {
		return nil, services.Wrap(services.ErrCollaboratorFailure, transcribeStage, "parse transcript",
			fmt.Sprintf("whisperx produced no timed words (%d dropped)", dropped), nil)
	}
	logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("words", len(words)),
		logging.Int("dropped_words", dropped),
		logging.String("model", s.cfg.Model),
	)
	return words, nil
}

// Diarize returns a copy of words with speakers attributed. When diarization
// is disabled or no token is configured every word is labelled UNKNOWN.
func (s *Service) Diarize(ctx context.Context, vocalPath string, words []timing.TimedWord, workDir string) ([]timing.TimedWord, error) {
	logger := logging.WithContext(ctx, s.logger)
	if !s.DiarizationAvailable() {
		reason := "diarization disabled"
		if s.cfg.DiarizeEnabled {
			reason = "no Hugging Face token configured"
		}
		logging.WarnWithContext(logger, "speaker diarization skipped", "diarization_skipped",
			logging.String("reason", reason),
			logging.String(logging.FieldErrorHint, "set diarizer.enabled and diarizer.hf_token (or HF_TOKEN) to color lines by singer"),
			logging.String(logging.FieldImpact, "all lines use the Default style"),
		)
		return AssignSpeakers(words, nil), nil
	}
	if len(words) == 0 {
		return []timing.TimedWord{}, nil
	}

	payload, err := s.invoke(ctx, diarizeStage, vocalPath, filepath.Join(workDir, "diarization"), true)
	if err != nil {
		return nil, err
	}
	turns := payload.turns()
	if len(turns) == 0 {
		return nil, services.Wrap(services.ErrCollaboratorFailure, diarizeStage, "parse diarization", "whisperx returned no speaker turns", nil)
	}
	labelled := AssignSpeakers(words, turns)
	logger.Info("diarization completed",
		logging.String(logging.FieldEventType, "diarization_complete"),
		logging.Int("turns", len(turns)),
		logging.Int("speakers", countSpeakers(labelled)),
	)
	return labelled, nil
}

func (s *Service) invoke(ctx context.Context, stage, source, outputDir string, diarize bool) (Payload, error) {
	info, err := os.Stat(source)
	if err != nil {
		return Payload{}, services.Wrap(services.ErrCollaboratorFailure, stage, "stat vocals", "vocal stem missing", err)
	}
	if info.IsDir() {
		return Payload{}, services.Wrap(services.ErrCollaboratorFailure, stage, "stat vocals", fmt.Sprintf("%s is a directory", source), nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Payload{}, services.Wrap(services.ErrConfiguration, stage, "prepare", "create output directory", err)
	}
	binary, err := s.lookup(stage, s.cfg.Command)
	if err != nil {
		return Payload{}, err
	}

	args := s.buildArgs(source, outputDir, diarize)
	logging.WithContext(ctx, s.logger).Info("whisperx started",
		logging.String(logging.FieldEventType, stage+"_start"),
		logging.String("model", s.cfg.Model),
		logging.String("device", s.device()),
		logging.Bool("diarize", diarize),
	)
	result, err := s.run(ctx, binary, args...)
	if err != nil {
		return Payload{}, services.Wrap(services.ErrCollaboratorFailure, stage, "run", "whisperx did not run", err)
	}
	if result.ExitCode != 0 {
		return Payload{}, services.Wrap(services.ErrCollaboratorFailure, stage, "run",
			fmt.Sprintf("whisperx exited with status %d: %s", result.ExitCode, tail(result.Stderr)), nil)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".json")
	data, err := LoadPayload(jsonPath)
	if err != nil {
		return Payload{}, services.Wrap(services.ErrCollaboratorFailure, stage, "read output", "whisperx json unreadable", err)
	}
	return data, nil
}

func (s *Service) device() string {
	if s.cfg.CUDAEnabled {
		return CUDADevice
	}
	return CPUDevice
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string, diarize bool) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	)

	if lang := langpkg.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if diarize {
		args = append(args, "--diarize", "--hf_token", s.cfg.HFToken)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Word represents a single word with timing from WhisperX output. Start and
// End are absent when alignment failed for the word.
type Word struct {
	Word    string   `json:"word"`
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
	Speaker string   `json:"speaker,omitempty"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Words   []Word  `json:"words"`
}

// Payload is the top-level WhisperX JSON document.
type Payload struct {
	Segments []Segment `json:"segments"`
}

// LoadPayload reads a WhisperX JSON file.
func LoadPayload(jsonPath string) (Payload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p, nil
}

func (p Payload) timedWords() ([]timing.TimedWord, int) {
	var (
		words   []timing.TimedWord
		dropped int
	)
	for _, seg := range p.Segments {
		for _, w := range seg.Words {
			if w.Start == nil || w.End == nil {
				dropped++
				continue
			}
			word, err := timing.NewTimedWord(w.Word, *w.Start, *w.End, timing.UnknownSpeaker)
			if err != nil {
				dropped++
				continue
			}
			words = append(words, word)
		}
	}
	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
	return words, dropped
}

func (p Payload) turns() []Turn {
	turns := make([]Turn, 0, len(p.Segments))
	for _, seg := range p.Segments {
		speaker := strings.TrimSpace(seg.Speaker)
		if speaker == "" || seg.End < seg.Start {
			continue
		}
		turns = append(turns, Turn{Start: seg.Start, End: seg.End, Speaker: speaker})
	}
	return turns
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const limit = 1024
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}
