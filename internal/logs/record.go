package logs

import (
	"encoding/json"
	"fmt"
	"strings"

	"tunely/internal/api"
	"tunely/internal/logging"
)

// ParseRecord decodes one slog JSON line. Attributes other than the well
// known ones land in Fields. Lines that are not JSON objects return false.
func ParseRecord(line string) (api.LogEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return api.LogEvent{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return api.LogEvent{}, false
	}

	evt := api.LogEvent{Fields: map[string]string{}}
	for key, value := range raw {
		text := stringify(value)
		switch key {
		case "time":
			evt.Timestamp = text
		case "level":
			evt.Level = text
		case "msg":
			evt.Message = text
		case logging.FieldComponent:
			evt.Component = text
		case logging.FieldRequestID:
			evt.RequestID = text
		case logging.FieldStage:
			evt.Stage = text
		default:
			evt.Fields[key] = text
		}
	}
	if len(evt.Fields) == 0 {
		evt.Fields = nil
	}
	return evt, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
