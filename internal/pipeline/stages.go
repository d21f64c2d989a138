package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"tunely/internal/encoding"
	"tunely/internal/logging"
	"tunely/internal/services"
	"tunely/internal/subtitles"
	"tunely/internal/timing"
)

func (p *Pipeline) separate(ctx context.Context, r *run) error {
	stems, err := p.opts.Separator.Separate(ctx, r.job.InputAudio, filepath.Join(p.WorkDir(r.job.RequestID), "stems"))
	if err != nil {
		return err
	}
	if stems.Instrumental == "" || stems.Vocals == "" {
		return services.Wrap(services.ErrCollaboratorFailure, "separating", "identify stems", "separator returned an incomplete stem pair", nil)
	}
	r.artifacts.InstrumentalAudio = stems.Instrumental
	r.artifacts.VocalAudio = stems.Vocals
	return nil
}

func (p *Pipeline) transcribe(ctx context.Context, r *run) error {
	words, err := p.opts.Transcriber.Transcribe(ctx, r.artifacts.VocalAudio, p.WorkDir(r.job.RequestID))
	if err != nil {
		return err
	}
	if err := timing.ValidateSequence(words); err != nil {
		return services.Wrap(services.ErrCollaboratorFailure, "transcribing", "validate words", "transcriber returned invalid timings", err)
	}
	r.words = words
	logging.WithContext(ctx, r.logger).Debug("transcription accepted", logging.Int("words", len(words)))
	return nil
}

func (p *Pipeline) diarize(ctx context.Context, r *run) error {
	labeled, err := p.opts.Diarizer.Diarize(ctx, r.artifacts.VocalAudio, r.words, p.WorkDir(r.job.RequestID))
	if err != nil {
		return err
	}
	if len(labeled) != len(r.words) {
		return services.Wrap(services.ErrCollaboratorFailure, "diarizing", "validate words",
			fmt.Sprintf("diarizer returned %d words for %d inputs", len(labeled), len(r.words)), nil)
	}
	if err := timing.ValidateSequence(labeled); err != nil {
		return services.Wrap(services.ErrCollaboratorFailure, "diarizing", "validate words", "diarizer altered word timings", err)
	}
	r.words = labeled
	return nil
}

func (p *Pipeline) buildSubtitles(ctx context.Context, r *run) error {
	lines, err := timing.Segment(r.words, p.opts.MaxWordsPerLine)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "building_subtitles", "segment", "invalid line width", err)
	}
	doc, err := p.builder.Build(lines)
	if err != nil {
		return err
	}
	path := p.SubtitlePath(r.job.RequestID)
	if err := writeSubtitles(path, doc); err != nil {
		return err
	}
	r.lines = lines
	r.doc = doc
	r.artifacts.SubtitleFile = path
	logging.WithContext(ctx, r.logger).Info("subtitles written",
		logging.String(logging.FieldEventType, "subtitles_written"),
		logging.String("path", path),
		logging.Int("lines", len(lines)),
		logging.Int("events", len(doc.Events)),
	)
	return nil
}

func (p *Pipeline) encode(ctx context.Context, r *run) error {
	res, err := p.opts.Assembler.Assemble(ctx, encoding.Request{
		AudioPath:      r.artifacts.InstrumentalAudio,
		SubtitlePath:   r.artifacts.SubtitleFile,
		OutputPath:     p.VideoPath(r.job.RequestID),
		BackgroundPath: r.job.BackgroundPath,
	})
	r.encoded = res
	if err != nil {
		return err
	}
	r.artifacts.OutputVideo = res.OutputPath
	return nil
}

func writeSubtitles(path string, doc subtitles.Document) error {
	err := subtitles.WriteFile(path, doc)
	if err == nil || errors.Is(err, services.ErrBuildInvariant) {
		return err
	}
	return services.Wrap(services.ErrConfiguration, "building_subtitles", "write", "write subtitle file", err)
}
