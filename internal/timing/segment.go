package timing

import (
	"errors"
	"fmt"
)

// DefaultMaxWordsPerLine matches the line width karaoke singers read comfortably.
const DefaultMaxWordsPerLine = 8

// ErrInvalidLineWidth is returned when the per-line word bound is not positive.
var ErrInvalidLineWidth = errors.New("max words per line must be positive")

// Line is a non-empty, ordered run of words shown together on screen.
type Line struct {
	Words []TimedWord
}

// Start returns the first word's start offset.
func (l Line) Start() float64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[0].Start
}

// End returns the last word's end offset.
func (l Line) End() float64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[len(l.Words)-1].End
}

// Speaker returns the speaker of the first word; the whole line is styled by it.
func (l Line) Speaker() string {
	if len(l.Words) == 0 {
		return UnknownSpeaker
	}
	return l.Words[0].SpeakerLabel()
}

// Segment packs words greedily into lines of at most maxWordsPerLine words,
// preserving order. The final line may be shorter. An empty input yields an
// empty result.
func Segment(words []TimedWord, maxWordsPerLine int) ([]Line, error) {
	if maxWordsPerLine <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLineWidth, maxWordsPerLine)
	}
	if len(words) == 0 {
		return []Line{}, nil
	}
	lines := make([]Line, 0, (len(words)+maxWordsPerLine-1)/maxWordsPerLine)
	for start := 0; start < len(words); start += maxWordsPerLine {
		end := min(start+maxWordsPerLine, len(words))
		chunk := make([]TimedWord, end-start)
		copy(chunk, words[start:end])
		lines = append(lines, Line{Words: chunk})
	}
	return lines, nil
}
