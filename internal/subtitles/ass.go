package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tunely/internal/fileutil"
	"tunely/internal/services"
	"tunely/internal/styles"
)

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
	utf8BOM     = "\ufeff"
)

// Serialize writes doc as ASS text. Documents that fail Validate are
// rejected before anything is written.
func Serialize(w io.Writer, doc Document) error {
	if err := doc.Validate(); err != nil {
		return services.Wrap(services.ErrBuildInvariant, "building_subtitles", "serialize", "document invalid", err)
	}
	bw := bufio.NewWriter(w)

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = DefaultTitle
	}
	playResX, playResY := doc.PlayResX, doc.PlayResY
	if playResX <= 0 {
		playResX = DefaultPlayResX
	}
	if playResY <= 0 {
		playResY = DefaultPlayResY
	}

	fmt.Fprintln(bw, "[Script Info]")
	fmt.Fprintf(bw, "Title: %s\n", title)
	fmt.Fprintln(bw, "ScriptType: v4.00+")
	fmt.Fprintln(bw, "WrapStyle: 0")
	fmt.Fprintln(bw, "ScaledBorderAndShadow: yes")
	fmt.Fprintf(bw, "PlayResX: %d\n", playResX)
	fmt.Fprintf(bw, "PlayResY: %d\n", playResY)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[V4+ Styles]")
	fmt.Fprintln(bw, styleFormat)
	for _, spec := range doc.Styles {
		fmt.Fprintln(bw, formatStyle(spec))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[Events]")
	fmt.Fprintln(bw, eventFormat)
	for _, event := range doc.Events {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatTimestamp(event.Start), formatTimestamp(event.End), event.StyleID, event.Text)
	}
	return bw.Flush()
}

// Marshal returns the ASS text for doc.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes doc to path as UTF-8 with a byte order mark. An
// existing file is replaced atomically.
func WriteFile(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	out := make([]byte, 0, len(utf8BOM)+len(data))
	out = append(out, utf8BOM...)
	out = append(out, data...)
	if err := fileutil.WriteFileAtomic(path, out, 0o644); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return nil
}

func formatStyle(s styles.Spec) string {
	return fmt.Sprintf("Style: %s,%s,%d,%s,%s,%s,%s,%s,0,0,0,100,100,0,0,1,%s,%s,%d,%d,%d,%d,1",
		s.ID,
		s.Font,
		s.Size,
		s.PrimaryColor.ASS(),
		s.SecondaryColor.ASS(),
		s.OutlineColor.ASS(),
		s.BackColor.ASS(),
		assBool(s.Bold),
		formatFloat(s.Outline),
		formatFloat(s.Shadow),
		s.Alignment,
		s.MarginL,
		s.MarginR,
		s.MarginV,
	)
}

func assBool(v bool) string {
	if v {
		return "-1"
	}
	return "0"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatTimestamp renders seconds as H:MM:SS.cc, rounding to the nearest
// centisecond.
func formatTimestamp(seconds float64) string {
	cs := max(toCentiseconds(seconds), 0)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
