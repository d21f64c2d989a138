package whisperx

import (
	"strings"

	"tunely/internal/timing"
)

// Turn is a span of audio attributed to one speaker.
type Turn struct {
	Start   float64
	End     float64
	Speaker string
}

// AssignSpeakers returns a copy of words where each word takes the speaker of
// the first turn containing the word's midpoint (bounds inclusive). Words
// outside every turn are labelled UNKNOWN. Input order is preserved.
func AssignSpeakers(words []timing.TimedWord, turns []Turn) []timing.TimedWord {
	out := make([]timing.TimedWord, len(words))
	for i, word := range words {
		word.Speaker = timing.UnknownSpeaker
		mid := (word.Start + word.End) / 2
		for _, turn := range turns {
			if mid >= turn.Start && mid <= turn.End {
				if label := strings.TrimSpace(turn.Speaker); label != "" {
					word.Speaker = label
				}
				break
			}
		}
		out[i] = word
	}
	return out
}

func countSpeakers(words []timing.TimedWord) int {
	seen := make(map[string]struct{})
	for _, w := range words {
		if w.Speaker != timing.UnknownSpeaker {
			seen[w.Speaker] = struct{}{}
		}
	}
	return len(seen)
}
