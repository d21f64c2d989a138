package timing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// UnknownSpeaker labels words the diarizer could not attribute.
const UnknownSpeaker = "UNKNOWN"

var (
	// ErrInvalidWord marks a word whose fields violate the timing model.
	ErrInvalidWord = errors.New("invalid timed word")
	// ErrOutOfOrder marks a word sequence whose start offsets decrease.
	ErrOutOfOrder = errors.New("timed words out of order")
)

// TimedWord is a single sung word with offsets in seconds from the start of
// the audio. End may be less than or equal to Start; such words are legal
// input and are filtered by the subtitle builder.
type TimedWord struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// NewTimedWord validates and constructs a TimedWord. Text is trimmed and an
// empty speaker is recorded as UnknownSpeaker.
func NewTimedWord(text string, start, end float64, speaker string) (TimedWord, error) {
	word := TimedWord{
		Text:    strings.TrimSpace(text),
		Start:   start,
		End:     end,
		Speaker: strings.TrimSpace(speaker),
	}
	if word.Speaker == "" {
		word.Speaker = UnknownSpeaker
	}
	if err := word.Validate(); err != nil {
		return TimedWord{}, err
	}
	return word, nil
}

// Validate reports whether the word satisfies the timing model.
func (w TimedWord) Validate() error {
	if strings.TrimSpace(w.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidWord)
	}
	if math.IsNaN(w.Start) || math.IsInf(w.Start, 0) {
		return fmt.Errorf("%w: %q start is not finite", ErrInvalidWord, w.Text)
	}
	if math.IsNaN(w.End) || math.IsInf(w.End, 0) {
		return fmt.Errorf("%w: %q end is not finite", ErrInvalidWord, w.Text)
	}
	if w.Start < 0 {
		return fmt.Errorf("%w: %q start %.3f is negative", ErrInvalidWord, w.Text, w.Start)
	}
	return nil
}

// Duration returns End-Start in seconds. The result may be zero or negative.
func (w TimedWord) Duration() float64 {
	return w.End - w.Start
}

// SpeakerLabel returns the speaker, substituting UnknownSpeaker for blanks.
func (w TimedWord) SpeakerLabel() string {
	if label := strings.TrimSpace(w.Speaker); label != "" {
		return label
	}
	return UnknownSpeaker
}

// ValidateSequence checks every word and that start offsets never decrease.
func ValidateSequence(words []TimedWord) error {
	for i, word := range words {
		if err := word.Validate(); err != nil {
			return fmt.Errorf("word %d: %w", i, err)
		}
		if i > 0 && word.Start < words[i-1].Start {
			return fmt.Errorf("%w: word %d (%q) starts at %.3f before %.3f", ErrOutOfOrder, i, word.Text, word.Start, words[i-1].Start)
		}
	}
	return nil
}
