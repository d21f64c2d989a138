package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tunely/internal/styles"
)

// Parse reads an ASS document in the layout Serialize writes. Sections and
// keys it does not model are ignored.
func Parse(r io.Reader) (Document, error) {
	var (
		doc     Document
		section string
		lineNo  int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(trimmed)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimPrefix(value, " ")

		switch section {
		case "[script info]":
			if err := parseInfo(&doc, key, value); err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "[v4+ styles]":
			if key != "Style" {
				continue
			}
			spec, err := parseStyle(value)
			if err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			doc.Styles = append(doc.Styles, spec)
		case "[events]":
			if key != "Dialogue" {
				continue
			}
			event, err := parseDialogue(value)
			if err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			doc.Events = append(doc.Events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read subtitles: %w", err)
	}
	return doc, nil
}

// ReadFile parses the ASS document stored at path.
func ReadFile(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open subtitle file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

func parseInfo(doc *Document, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "Title":
		doc.Title = value
	case "PlayResX", "PlayResY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "PlayResX" {
			doc.PlayResX = n
		} else {
			doc.PlayResY = n
		}
	}
	return nil
}

func parseStyle(value string) (styles.Spec, error) {
	fields := strings.Split(value, ",")
	if len(fields) != 23 {
		return styles.Spec{}, fmt.Errorf("style: expected 23 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	var (
		spec styles.Spec
		err  error
	)
	spec.ID = fields[0]
	spec.Font = fields[1]
	if spec.Size, err = strconv.Atoi(fields[2]); err != nil {
		return styles.Spec{}, fmt.Errorf("style %q size: %w", spec.ID, err)
	}
	colors := []*styles.Color{&spec.PrimaryColor, &spec.SecondaryColor, &spec.OutlineColor, &spec.BackColor}
	for i, dst := range colors {
		if *dst, err = styles.ParseASSColor(fields[3+i]); err != nil {
			return styles.Spec{}, fmt.Errorf("style %q: %w", spec.ID, err)
		}
	}
	spec.Bold = fields[7] == "-1" || fields[7] == "1"
	if spec.Outline, err = strconv.ParseFloat(fields[16], 64); err != nil {
		return styles.Spec{}, fmt.Errorf("style %q outline: %w", spec.ID, err)
	}
	if spec.Shadow, err = strconv.ParseFloat(fields[17], 64); err != nil {
		return styles.Spec{}, fmt.Errorf("style %q shadow: %w", spec.ID, err)
	}
	ints := []*int{&spec.Alignment, &spec.MarginL, &spec.MarginR, &spec.MarginV}
	for i, dst := range ints {
		if *dst, err = strconv.Atoi(fields[18+i]); err != nil {
			return styles.Spec{}, fmt.Errorf("style %q field %d: %w", spec.ID, 18+i, err)
		}
	}
	return spec, nil
}

func parseDialogue(value string) (Event, error) {
	fields := strings.SplitN(value, ",", 10)
	if len(fields) != 10 {
		return Event{}, fmt.Errorf("dialogue: expected 10 fields, got %d", len(fields))
	}
	start, err := parseTimestamp(fields[1])
	if err != nil {
		return Event{}, err
	}
	end, err := parseTimestamp(fields[2])
	if err != nil {
		return Event{}, err
	}
	return Event{
		Start:   start,
		End:     end,
		StyleID: strings.TrimSpace(fields[3]),
		Text:    fields[9],
	}, nil
}

// parseTimestamp reads H:MM:SS.cc into seconds.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q: expected H:MM:SS.cc", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", value, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", value, err)
	}
	secPart, csPart, _ := strings.Cut(parts[2], ".")
	s, err := strconv.Atoi(secPart)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", value, err)
	}
	cs := 0
	if csPart != "" {
		if cs, err = strconv.Atoi(csPart); err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", value, err)
		}
	}
	total := ((h*60+m)*60+s)*100 + cs
	return float64(total) / 100, nil
}
