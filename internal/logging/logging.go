package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Open creates or appends to the current month's log file inside dir and
// returns a logger writing one line per record. The caller owns the returned
// closer. A nil clock means time.Now.
func Open(dir string, level slog.Level, clock func() time.Time) (*slog.Logger, io.Closer, error) {
	if clock == nil {
		clock = time.Now
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("backup_%s.log", clock().Format("2006_01")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return slog.New(NewLineHandler(file, level, clock)), file, nil
}

// LineHandler is a slog.Handler producing "<timestamp> - <LEVEL> - <message>"
// lines, with record attributes appended as key=value pairs.
type LineHandler struct {
	mu    *sync.Mutex // shared across WithAttrs/WithGroup clones
	w     io.Writer
	level slog.Level
	clock func() time.Time
	attrs string
	group string
}

// NewLineHandler creates a handler writing to w at the given minimum level.
func NewLineHandler(w io.Writer, level slog.Level, clock func() time.Time) *LineHandler {
	if clock == nil {
		clock = time.Now
	}
	return &LineHandler{mu: &sync.Mutex{}, w: w, level: level, clock: clock}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LineHandler) Handle(_ context.Context, rec slog.Record) error {
	ts := rec.Time
	if ts.IsZero() {
		ts = h.clock()
	}

	line := fmt.Sprintf("%s - %s - %s",
		ts.Format("2006-01-02 15:04:05,000"),
		rec.Level.String(),
		rec.Message)
	line += h.attrs
	rec.Attrs(func(a slog.Attr) bool {
		line += " " + h.formatAttr(a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		clone.attrs += " " + h.formatAttr(a)
	}
	return &clone
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group == "" {
		clone.group = name
	} else {
		clone.group += "." + name
	}
	return &clone
}

func (h *LineHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return fmt.Sprintf("%s=%v", key, a.Value.Resolve().Any())
}
