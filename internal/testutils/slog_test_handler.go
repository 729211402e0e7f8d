package testutils

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// LogEntry is one captured record: "level", "message" and every attribute,
// including those added with Logger.With.
type LogEntry map[string]interface{}

// String returns the entry's value for key formatted with %v, or "".
func (e LogEntry) String(key string) string {
	v, ok := e[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// TestSlogHandler is a memory-backed slog.Handler. Handlers derived with
// WithAttrs or WithGroup write to the same store.
type TestSlogHandler struct {
	store *logStore
	attrs []slog.Attr
	group string
}

// NewTestSlogHandler creates a new memory-backed slog handler
func NewTestSlogHandler() *TestSlogHandler {
	return &TestSlogHandler{store: &logStore{}}
}

// Enabled satisfies slog.Handler interface
func (h *TestSlogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle satisfies slog.Handler interface
func (h *TestSlogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	for _, a := range h.attrs {
		entry[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[h.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})

	h.store.mu.Lock()
	h.store.entries = append(h.store.entries, entry)
	h.store.mu.Unlock()
	return nil
}

func (h *TestSlogHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// WithAttrs satisfies slog.Handler interface
func (h *TestSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &next
}

// WithGroup satisfies slog.Handler interface
func (h *TestSlogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

// Entries returns all captured log entries
func (h *TestSlogHandler) Entries() []LogEntry {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	result := make([]LogEntry, len(h.store.entries))
	copy(result, h.store.entries)
	return result
}

// WithMessage returns the captured entries whose message equals msg.
func (h *TestSlogHandler) WithMessage(msg string) []LogEntry {
	var out []LogEntry
	for _, e := range h.Entries() {
		if e["message"] == msg {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether any captured message or string attribute
// contains s.
func (h *TestSlogHandler) Contains(s string) bool {
	for _, e := range h.Entries() {
		for _, v := range e {
			if str, ok := v.(string); ok && strings.Contains(str, s) {
				return true
			}
		}
	}
	return false
}

// Clear resets the captured log entries
func (h *TestSlogHandler) Clear() {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	h.store.entries = nil
}
