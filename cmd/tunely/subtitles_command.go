package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tunely/internal/config"
	"tunely/internal/styles"
	"tunely/internal/subtitles"
	"tunely/internal/timing"
)

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var maxWords int

	cmd := &cobra.Command{
		Use:   "subtitles <words.json>",
		Short: "Build a karaoke subtitle file from a timed word list",
		Long: "Reads a JSON array of {text, start, end, speaker} words and writes an ASS " +
			"subtitle file with per-word \\k highlighting. Use -o - to print to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			words, err := readWordList(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-words") {
				maxWords = cfg.Subtitles.MaxWordsPerLine
			}
			doc, lines, err := buildSubtitleDocument(cfg, words, maxWords)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "-" {
				return subtitles.Serialize(cmd.OutOrStdout(), doc)
			}
			if target == "" {
				target = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".ass"
			}
			if err := subtitles.WriteFile(target, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lines (%d words) to %s\n", len(lines), len(words), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination .ass file (defaults next to the input)")
	cmd.Flags().IntVar(&maxWords, "max-words", timing.DefaultMaxWordsPerLine, "Maximum words per line (defaults to [subtitles].max_words_per_line)")
	return cmd
}

func readWordList(path string) ([]timing.TimedWord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	var raw []timing.TimedWord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	words := make([]timing.TimedWord, 0, len(raw))
	for i, w := range raw {
		word, err := timing.NewTimedWord(w.Text, w.Start, w.End, w.Speaker)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		words = append(words, word)
	}
	if err := timing.ValidateSequence(words); err != nil {
		return nil, err
	}
	return words, nil
}

func buildSubtitleDocument(cfg *config.Config, words []timing.TimedWord, maxWords int) (subtitles.Document, []timing.Line, error) {
	set, err := cfg.StyleSet()
	if err != nil {
		return subtitles.Document{}, nil, fmt.Errorf("styles: %w", err)
	}
	mapping := cfg.SpeakerMapping()
	if err := set.CheckMapping(mapping); err != nil {
		return subtitles.Document{}, nil, fmt.Errorf("styles: %w", err)
	}
	lines, err := timing.Segment(words, maxWords)
	if err != nil {
		return subtitles.Document{}, nil, err
	}
	builder := subtitles.NewBuilder(set, styles.NewResolver(mapping),
		subtitles.WithLeadIn(cfg.Subtitles.LeadInSeconds),
		subtitles.WithPlayRes(cfg.Subtitles.PlayResX, cfg.Subtitles.PlayResY),
		subtitles.WithTitle(cfg.Subtitles.Title),
	)
	doc, err := builder.Build(lines)
	if err != nil {
		return subtitles.Document{}, nil, err
	}
	return doc, lines, nil
}
