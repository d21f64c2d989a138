package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// lockedWriter serializes writes from a handler and all of its derived
// handlers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// consoleHandler writes one human-readable line per record:
//
//	2026-10-15T09:12:03Z INFO pipeline [01234567 encoding]: stage complete words=12
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	prefix     string
	fields     []field
}

type field struct {
	key   string
	value slog.Value
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	line := consoleLine{
		when:  record.Time,
		level: record.Level,
		msg:   strings.TrimSpace(record.Message),
	}
	if line.when.IsZero() {
		line.when = time.Now()
	}
	if h.withSource {
		if src := record.Source(); src != nil {
			line.source = filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
		}
	}
	for _, f := range h.fields {
		line.add(f)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collect(h.prefix, attr, line.add)
		return true
	})
	_, err := io.WriteString(h.out, line.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		collect(h.prefix, attr, func(f field) { next.fields = append(next.fields, f) })
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect flattens attr into dotted keys and hands each leaf to emit.
func collect(prefix string, attr slog.Attr, emit func(field)) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, member := range value.Group() {
			collect(inner, member, emit)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	emit(field{key: prefix + attr.Key, value: value})
}

type consoleLine struct {
	when      time.Time
	level     slog.Level
	msg       string
	source    string
	component string
	requestID string
	stage     string
	pairs     []field
}

// add routes the well-known keys into the line header and keeps the rest
// as trailing key=value pairs. The first component wins so a nested
// component logger keeps its parent's name.
func (l *consoleLine) add(f field) {
	switch f.key {
	case FieldComponent:
		if l.component == "" {
			l.component = plain(f.value)
		}
	case FieldRequestID:
		l.requestID = plain(f.value)
	case FieldStage:
		l.stage = plain(f.value)
	default:
		l.pairs = append(l.pairs, f)
	}
}

func (l *consoleLine) String() string {
	var b strings.Builder
	b.Grow(96 + 24*len(l.pairs))
	b.WriteString(l.when.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelName(l.level))
	b.WriteByte(' ')

	var subject []string
	if l.requestID != "" {
		subject = append(subject, shortID(l.requestID))
	}
	if l.stage != "" {
		subject = append(subject, l.stage)
	}
	head := l.component
	if len(subject) > 0 {
		head = strings.TrimSpace(head + " [" + strings.Join(subject, " ") + "]")
	}
	if head != "" {
		b.WriteString(head)
		b.WriteString(": ")
	}

	if l.msg == "" {
		b.WriteString("(no message)")
	} else {
		b.WriteString(l.msg)
	}
	if l.source != "" {
		fmt.Fprintf(&b, " [%s]", l.source)
	}
	for _, f := range l.pairs {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(plain(f.value)))
	}
	b.WriteByte('\n')
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// plain renders a value without quoting. Errors use their message and times
// are normalized to UTC.
func plain(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
