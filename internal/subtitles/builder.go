package subtitles

import (
	"fmt"
	"log/slog"
	"strings"

	"tunely/internal/logging"
	"tunely/internal/services"
	"tunely/internal/styles"
	"tunely/internal/timing"
)

// StyleResolver maps a speaker label to a style identifier.
type StyleResolver interface {
	Resolve(speaker string) string
}

// Builder converts segmented lines into a karaoke Document.
type Builder struct {
	styles   *styles.Set
	resolver StyleResolver
	leadIn   float64
	playResX int
	playResY int
	title    string
	logger   *slog.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithLeadIn shows each line up to seconds before its first word, padding
// the gap with an empty reveal so highlighting still starts on time.
func WithLeadIn(seconds float64) BuilderOption {
	return func(b *Builder) {
		if seconds > 0 {
			b.leadIn = seconds
		}
	}
}

// WithPlayRes sets the script resolution written to Script Info.
func WithPlayRes(x, y int) BuilderOption {
	return func(b *Builder) {
		b.playResX = x
		b.playResY = y
	}
}

// WithTitle sets the Script Info title.
func WithTitle(title string) BuilderOption {
	return func(b *Builder) {
		b.title = strings.TrimSpace(title)
	}
}

// WithLogger attaches a logger for build diagnostics.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logging.NewComponentLogger(logger, "subtitle-builder")
	}
}

// NewBuilder constructs a Builder. Every style the resolver can return must
// be present in set; Default always is.
func NewBuilder(set *styles.Set, resolver StyleResolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		styles:   set,
		resolver: resolver,
		playResX: DefaultPlayResX,
		playResY: DefaultPlayResY,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build emits one event per line. Lines whose words all have non-positive
// duration still produce an event with empty text.
func (b *Builder) Build(lines []timing.Line) (Document, error) {
	if b == nil || b.styles == nil {
		return Document{}, services.Wrap(services.ErrBuildInvariant, "building_subtitles", "build", "builder has no styles", nil)
	}
	doc := NewDocument(b.styles, b.playResX, b.playResY)
	if b.title != "" {
		doc.Title = b.title
	}
	doc.Events = make([]Event, 0, len(lines))
	skipped := 0
	for i, line := range lines {
		if len(line.Words) == 0 {
			return Document{}, services.Wrap(services.ErrBuildInvariant, "building_subtitles", "build", fmt.Sprintf("line %d has no words", i), nil)
		}
		event, dropped := b.buildEvent(line)
		if !b.styles.Has(event.StyleID) {
			return Document{}, services.Wrap(services.ErrBuildInvariant, "building_subtitles", "resolve style",
				fmt.Sprintf("line %d resolved to undefined style %q", i, event.StyleID), ErrUndefinedStyle)
		}
		skipped += dropped
		doc.Events = append(doc.Events, event)
	}
	if skipped > 0 {
		b.logger.Debug("skipped words without positive duration",
			logging.Int("skipped_words", skipped),
			logging.Int("line_count", len(lines)),
		)
	}
	return doc, nil
}

func (b *Builder) buildEvent(line timing.Line) (Event, int) {
	styleID := styles.DefaultID
	if b.resolver != nil {
		styleID = b.resolver.Resolve(line.Speaker())
	}

	start := line.Start()
	end := line.End()
	eventStart := max(start-b.leadIn, 0)
	budget := max(toCentiseconds(end-eventStart), 0)

	var leadTag string
	if gap := min(toCentiseconds(start-eventStart), budget); gap > 0 {
		leadTag = fmt.Sprintf(`{\k%d}`, gap)
	}

	dropped := 0
	cursor := start
	words := make([]string, 0, len(line.Words))
	for _, word := range line.Words {
		cs := toCentiseconds(word.Duration())
		if cs <= 0 {
			dropped++
			continue
		}
		// A word overlapping its predecessor or running past the line only
		// reveals over the part of the line it has to itself.
		if word.Start < cursor || word.End > end {
			cs = max(toCentiseconds(min(word.End, end)-max(word.Start, cursor)), 0)
		}
		cursor = max(cursor, word.End)
		words = append(words, fmt.Sprintf(`{\k%d}%s`, cs, EscapeText(word.Text)))
	}

	text := strings.Join(words, " ")
	if text != "" {
		text = leadTag + text
	}
	return Event{Start: eventStart, End: end, StyleID: styleID, Text: text}, dropped
}

// EscapeText neutralizes characters that would otherwise start override
// blocks or escape sequences in ASS text.
func EscapeText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, `\`, `/`)
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}
