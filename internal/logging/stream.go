package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEvent is one record kept by a StreamHub.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// StreamHub keeps the most recent events in a fixed-size window and lets
// readers wait for new ones. Sequence numbers start at 1 and never repeat.
type StreamHub struct {
	mu      sync.Mutex
	events  []LogEvent
	limit   int
	last    uint64
	arrived chan struct{}
}

// NewStreamHub returns a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	return &StreamHub{
		events:  make([]LogEvent, 0, capacity),
		limit:   capacity,
		arrived: make(chan struct{}),
	}
}

// Publish stamps evt with the next sequence number and wakes waiting readers.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last++
	evt.Sequence = h.last
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.events) == h.limit {
		h.events = append(h.events[:0], h.events[1:]...)
	}
	h.events = append(h.events, evt)
	close(h.arrived)
	h.arrived = make(chan struct{})
}

// Fetch returns up to limit events newer than since along with the latest
// sequence number. With wait set it blocks until an event arrives or ctx
// ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		h.mu.Lock()
		events := h.after(since, limit)
		last, arrived := h.last, h.arrived
		h.mu.Unlock()

		if len(events) > 0 || !wait {
			return events, last, nil
		}
		select {
		case <-ctx.Done():
			return nil, last, ctx.Err()
		case <-arrived:
		}
	}
}

// Tail returns the newest limit events without blocking.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	limit = h.clamp(limit)
	start := max(len(h.events)-limit, 0)
	return append([]LogEvent(nil), h.events[start:]...), h.last
}

func (h *StreamHub) clamp(limit int) int {
	if limit <= 0 || limit > h.limit {
		return h.limit
	}
	return limit
}

func (h *StreamHub) after(since uint64, limit int) []LogEvent {
	limit = h.clamp(limit)
	for i, evt := range h.events {
		if evt.Sequence <= since {
			continue
		}
		end := min(i+limit, len(h.events))
		return append([]LogEvent(nil), h.events[i:end]...)
	}
	return nil
}

// FilterByRequest keeps the events tagged with requestID. An empty ID keeps
// everything.
func FilterByRequest(events []LogEvent, requestID string) []LogEvent {
	if requestID == "" {
		return events
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		if evt.RequestID == requestID {
			out = append(out, evt)
		}
	}
	return out
}

// streamHandler copies each record into a hub before passing it on.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	prefix string
	fields []field
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	evt := LogEvent{
		Timestamp: record.Time,
		Level:     levelName(record.Level),
		Message:   strings.TrimSpace(record.Message),
	}
	for _, f := range h.fields {
		evt.set(f)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collect(h.prefix, attr, evt.set)
		return true
	})
	h.hub.Publish(evt)
	return h.next.Handle(ctx, record)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &streamHandler{
		next:   h.next.WithAttrs(attrs),
		hub:    h.hub,
		prefix: h.prefix,
		fields: append([]field(nil), h.fields...),
	}
	for _, attr := range attrs {
		collect(h.prefix, attr, func(f field) { next.fields = append(next.fields, f) })
	}
	return next
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	next := &streamHandler{next: h.next.WithGroup(name), hub: h.hub, prefix: h.prefix, fields: h.fields}
	if name != "" {
		next.prefix = h.prefix + name + "."
	}
	return next
}

func (e *LogEvent) set(f field) {
	value := plain(f.value)
	switch f.key {
	case FieldComponent:
		if e.Component == "" {
			e.Component = value
		}
	case FieldStage:
		e.Stage = value
	case FieldRequestID:
		e.RequestID = value
	default:
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[f.key] = value
	}
}
