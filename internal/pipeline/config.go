package pipeline

import (
	"fmt"
	"log/slog"

	"tunely/internal/config"
	"tunely/internal/encoding"
	"tunely/internal/media/ffprobe"
	"tunely/internal/services/separator"
	"tunely/internal/services/whisperx"
)

// PresetFromConfig converts the [encoder] section into an encoder preset.
func PresetFromConfig(cfg *config.Config) (encoding.Preset, error) {
	width, height, err := encoding.ParseResolution(cfg.Encoder.Resolution)
	if err != nil {
		return encoding.Preset{}, fmt.Errorf("encoder: %w", err)
	}
	preset := encoding.Preset{
		VideoCodec:      cfg.Encoder.VideoCodec,
		Speed:           cfg.Encoder.Preset,
		CRF:             cfg.Encoder.CRF,
		AudioCodec:      cfg.Encoder.AudioCodec,
		AudioBitrate:    cfg.Encoder.AudioBitrate,
		Width:           width,
		Height:          height,
		BackgroundColor: cfg.Encoder.BackgroundColor,
	}
	if err := preset.Validate(); err != nil {
		return encoding.Preset{}, fmt.Errorf("encoder: %w", err)
	}
	return preset, nil
}

// NewFromConfig wires the production collaborators described by cfg: the
// audio-separator CLI, WhisperX for transcription and diarization, and ffmpeg
// with ffprobe background checks.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, recorder Recorder) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	set, err := cfg.StyleSet()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	preset, err := PresetFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	sep := separator.NewService(separator.Config{
		Command:      cfg.Separator.Command,
		Package:      cfg.Separator.Package,
		Model:        cfg.Separator.Model,
		OutputFormat: cfg.Separator.OutputFormat,
	}, logger)
	wx := whisperx.NewService(whisperx.Config{
		Command:        cfg.Transcriber.Command,
		Model:          cfg.Transcriber.Model,
		Language:       cfg.Transcriber.Language,
		CUDAEnabled:    cfg.Transcriber.CUDAEnabled,
		DiarizeEnabled: cfg.Diarizer.Enabled,
		HFToken:        cfg.Diarizer.HFToken,
	}, logger)
	assembler := encoding.NewAssembler(cfg.FFmpegBinary(), preset, logger).
		WithBackgroundProber(ffprobe.NewProber(cfg.FFprobeBinary()))

	return New(Options{
		Separator:       sep,
		Transcriber:     wx,
		Diarizer:        wx,
		Assembler:       assembler,
		Styles:          set,
		Mapping:         cfg.SpeakerMapping(),
		MaxWordsPerLine: cfg.Subtitles.MaxWordsPerLine,
		LeadInSeconds:   cfg.Subtitles.LeadInSeconds,
		PlayResX:        cfg.Subtitles.PlayResX,
		PlayResY:        cfg.Subtitles.PlayResY,
		Title:           cfg.Subtitles.Title,
		WorkRoot:        cfg.WorkRoot(),
		OutputDir:       cfg.Paths.OutputDir,
		Recorder:        recorder,
		Logger:          logger,
	})
}
