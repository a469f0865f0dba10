package render

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is one captured log line for the terminal renderer's embedded
// log pane.
type LogEntry struct {
	Level   slog.Level
	Message string
}

// LogBuffer is a fixed-size ring of recent log entries, fed by
// LogBufferHandler so the terminal UI can render its own tail of logs
// instead of letting slog's default handler fight it for the screen.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	cap     int
}

func NewLogBuffer(capacity int) *LogBuffer {
	return &LogBuffer{cap: capacity}
}

func (b *LogBuffer) add(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// GetRecent returns up to n of the most recently added entries, oldest
// first.
func (b *LogBuffer) GetRecent(n int) []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.entries) {
		n = len(b.entries)
	}
	if n <= 0 {
		return nil
	}
	start := len(b.entries) - n
	out := make([]LogEntry, n)
	copy(out, b.entries[start:])
	return out
}

// LogBufferHandler is an slog.Handler that appends formatted records to a
// LogBuffer instead of writing to a stream, so logs emitted while the
// terminal renderer owns the screen don't corrupt its output.
type LogBufferHandler struct {
	buf   *LogBuffer
	level slog.Level
}

func NewLogBufferHandler(buf *LogBuffer, level slog.Level) *LogBufferHandler {
	return &LogBufferHandler{buf: buf, level: level}
}

func (h *LogBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogBufferHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	r.Attrs(func(a slog.Attr) bool {
		msg += " " + a.Key + "=" + a.Value.String()
		return true
	})
	h.buf.add(LogEntry{Level: r.Level, Message: msg})
	return nil
}

func (h *LogBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *LogBufferHandler) WithGroup(name string) slog.Handler      { return h }

// FormatLogEntry renders a LogEntry as a single display line.
func FormatLogEntry(e LogEntry) string {
	return "[" + e.Level.String() + "] " + e.Message
}
