package subtitles

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"tunely/internal/styles"
)

// Script Info values used when a document does not set its own.
const (
	DefaultPlayResX = 1280
	DefaultPlayResY = 720
	DefaultTitle    = "Tunely Karaoke"
)

// ErrUndefinedStyle marks an event whose style is missing from the document.
var ErrUndefinedStyle = errors.New("event references undefined style")

// ErrDefaultStyle marks a document whose first style is not Default.
var ErrDefaultStyle = errors.New("document must list the Default style first")

// ErrRevealOverrun marks an event whose reveal tags outlast its time span.
var ErrRevealOverrun = errors.New("event reveal durations exceed event span")

// Event is one on-screen karaoke line. Start and End are seconds.
type Event struct {
	Start   float64
	End     float64
	StyleID string
	Text    string
}

// Document is an ASS subtitle track with ordered, uniquely named styles.
type Document struct {
	Title    string
	PlayResX int
	PlayResY int
	Styles   []styles.Spec
	Events   []Event
}

// NewDocument creates an empty document carrying the given style set.
func NewDocument(set *styles.Set, playResX, playResY int) Document {
	if playResX <= 0 {
		playResX = DefaultPlayResX
	}
	if playResY <= 0 {
		playResY = DefaultPlayResY
	}
	doc := Document{Title: DefaultTitle, PlayResX: playResX, PlayResY: playResY}
	if set != nil {
		doc.Styles = set.Specs()
	}
	return doc
}

// Validate checks that the Default style comes first and style IDs are
// unique, that every event references a defined style, and that the reveal
// tags of each event fit in its span (allowing one centisecond of rounding
// slack per tag).
func (d Document) Validate() error {
	if len(d.Styles) == 0 || d.Styles[0].ID != styles.DefaultID {
		return ErrDefaultStyle
	}
	defined := make(map[string]struct{}, len(d.Styles))
	for _, spec := range d.Styles {
		if err := spec.Validate(); err != nil {
			return err
		}
		if _, dup := defined[spec.ID]; dup {
			return fmt.Errorf("style %q defined more than once", spec.ID)
		}
		defined[spec.ID] = struct{}{}
	}
	for i, event := range d.Events {
		if _, ok := defined[event.StyleID]; !ok {
			return fmt.Errorf("%w: event %d uses %q", ErrUndefinedStyle, i, event.StyleID)
		}
		if event.Start < 0 || math.IsNaN(event.Start) || math.IsNaN(event.End) {
			return fmt.Errorf("event %d: invalid time range %.3f-%.3f", i, event.Start, event.End)
		}
		total, tags := RevealTotal(event.Text)
		span := max(toCentiseconds(event.End-event.Start), 0)
		if total > span+tags {
			return fmt.Errorf("%w: event %d reveals %dcs over a %dcs span", ErrRevealOverrun, i, total, span)
		}
	}
	return nil
}

var revealTagPattern = regexp.MustCompile(`\{\\[kK][fo]?(\d+)\}`)

// RevealTotal sums the centiseconds of every reveal tag in text and reports
// how many tags were found.
func RevealTotal(text string) (total int, tags int) {
	for _, match := range revealTagPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		total += n
		tags++
	}
	return total, tags
}

func toCentiseconds(seconds float64) int {
	return int(math.Round(seconds * 100))
}
