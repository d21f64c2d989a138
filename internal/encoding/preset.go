package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Preset pins every encoder knob so identical inputs produce comparable output.
type Preset struct {
	VideoCodec      string
	Speed           string
	CRF             int
	AudioCodec      string
	AudioBitrate    string
	Width           int
	Height          int
	BackgroundColor string
}

// DefaultPreset is H.264/AAC at 720p over a black canvas.
func DefaultPreset() Preset {
	return Preset{
		VideoCodec:      "libx264",
		Speed:           "fast",
		CRF:             23,
		AudioCodec:      "aac",
		AudioBitrate:    "192k",
		Width:           1280,
		Height:          720,
		BackgroundColor: "black",
	}
}

// Resolution renders WxH for the lavfi color source.
func (p Preset) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// ParseResolution reads a WxH string.
func ParseResolution(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q: expected WIDTHxHEIGHT", value)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("resolution %q: %w", value, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("resolution %q: %w", value, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q: dimensions must be positive", value)
	}
	return width, height, nil
}

// Validate reports presets ffmpeg would reject.
func (p Preset) Validate() error {
	switch {
	case strings.TrimSpace(p.VideoCodec) == "":
		return errors.New("video codec is required")
	case strings.TrimSpace(p.Speed) == "":
		return errors.New("encoder preset is required")
	case p.CRF < 0 || p.CRF > 51:
		return fmt.Errorf("crf %d out of range 0-51", p.CRF)
	case strings.TrimSpace(p.AudioCodec) == "":
		return errors.New("audio codec is required")
	case strings.TrimSpace(p.AudioBitrate) == "":
		return errors.New("audio bitrate is required")
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("resolution %s must be positive", p.Resolution())
	case p.Width%2 != 0 || p.Height%2 != 0:
		return fmt.Errorf("resolution %s must use even dimensions for yuv420p", p.Resolution())
	case strings.TrimSpace(p.BackgroundColor) == "" || strings.ContainsAny(p.BackgroundColor, ":,;[]'\\ "):
		return fmt.Errorf("background color %q is not a plain ffmpeg color", p.BackgroundColor)
	}
	return nil
}
