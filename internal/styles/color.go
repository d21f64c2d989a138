package styles

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Color is an RGBA color. A is ASS-style transparency: 0x00 is opaque and
// 0xFF is fully transparent.
type Color struct {
	R, G, B, A uint8
}

// ParseColor accepts #RRGGBB or #RRGGBBAA (AA is ASS transparency).
func ParseColor(value string) (Color, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(raw) != 6 && len(raw) != 8 {
		return Color{}, fmt.Errorf("color %q: expected #RRGGBB or #RRGGBBAA", value)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", value, err)
	}
	c := Color{R: decoded[0], G: decoded[1], B: decoded[2]}
	if len(decoded) == 4 {
		c.A = decoded[3]
	}
	return c, nil
}

// ASS renders the color as &HAABBGGRR.
func (c Color) ASS() string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", c.A, c.B, c.G, c.R)
}

// Hex renders the color as #RRGGBB, appending AA when transparency is set.
func (c Color) Hex() string {
	if c.A != 0 {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseASSColor decodes &HAABBGGRR or &HBBGGRR.
func ParseASSColor(value string) (Color, error) {
	raw := strings.TrimSpace(value)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "&H"), "&h")
	raw = strings.TrimSuffix(raw, "&")
	if len(raw) == 6 {
		raw = "00" + raw
	}
	if len(raw) != 8 {
		return Color{}, fmt.Errorf("ass color %q: expected &HAABBGGRR", value)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return Color{}, fmt.Errorf("ass color %q: %w", value, err)
	}
	return Color{A: decoded[0], B: decoded[1], G: decoded[2], R: decoded[3]}, nil
}
