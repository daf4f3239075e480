// Package testutil provides shared test helpers, primarily a buffered
// slog handler so tests can assert on the log records a stage emits.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is a captured log record.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// BufferedHandler captures log records for assertions.
type BufferedHandler struct {
	mu      sync.Mutex
	attrs   []slog.Attr
	records []LogRecord
	t       *testing.T
}

// NewLogger returns a logger backed by a buffered handler.
func NewLogger(t *testing.T) (*slog.Logger, *BufferedHandler) {
	h := &BufferedHandler{t: t}
	return slog.New(h), h
}

// Handle implements slog.Handler.
func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.records = append(h.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// Enabled implements slog.Handler; tests capture every level.
func (h *BufferedHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. Derived handlers forward into the
// same record buffer so assertions see records logged through
// logger.With(...) children.
func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &forwardingHandler{parent: h, attrs: attrs}
}

// WithGroup implements slog.Handler; groups are flattened in tests.
func (h *BufferedHandler) WithGroup(string) slog.Handler {
	return h
}

type forwardingHandler struct {
	parent *BufferedHandler
	attrs  []slog.Attr
}

func (f *forwardingHandler) Handle(ctx context.Context, r slog.Record) error {
	clone := r.Clone()
	clone.AddAttrs(f.attrs...)
	return f.parent.Handle(ctx, clone)
}

func (f *forwardingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (f *forwardingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &forwardingHandler{parent: f.parent, attrs: append(append([]slog.Attr{}, f.attrs...), attrs...)}
}

func (f *forwardingHandler) WithGroup(string) slog.Handler { return f }

// Records returns a copy of the captured records.
func (h *BufferedHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// RecordsAtLevel returns captured records filtered by level.
func (h *BufferedHandler) RecordsAtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record's message contains s.
func (h *BufferedHandler) ContainsMessage(s string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, s) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key=value. Values are
// compared via slog.Value so numeric kinds match regardless of the Go
// type of the expected value (slog stores all ints as int64).
func (h *BufferedHandler) ContainsAttr(key string, value any) bool {
	want := slog.AnyValue(value)
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && slog.AnyValue(v).Equal(want) {
			return true
		}
	}
	return false
}

// AssertLogged fails the test unless a record at the given level
// contains the message fragment.
func AssertLogged(t *testing.T, h *BufferedHandler, level slog.Level, fragment string) {
	t.Helper()
	for _, r := range h.RecordsAtLevel(level) {
		if strings.Contains(r.Message, fragment) {
			return
		}
	}
	t.Errorf("expected a %s log containing %q", level, fragment)
	for _, r := range h.RecordsAtLevel(level) {
		t.Logf("  captured: %s", r.Message)
	}
}
