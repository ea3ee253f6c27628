package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ActionsHandler is a slog.Handler that writes GitHub Actions workflow
// commands, so warnings and errors surface as annotations on the run.
type ActionsHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []string
	group string
}

// NewActionsHandler creates an ActionsHandler writing to w.
func NewActionsHandler(w io.Writer, opts *slog.HandlerOptions) *ActionsHandler {
	if w == nil {
		w = os.Stdout
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &ActionsHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ActionsHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as a workflow command. Info records are plain lines.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *ActionsHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	if attrs := recordAttrs(h.group, h.attrs, &r); len(attrs) > 0 {
		msg += " " + strings.Join(attrs, " ")
	}

	var line string
	switch {
	case r.Level >= slog.LevelError:
		line = "::error::" + escapeCommandData(msg)
	case r.Level >= slog.LevelWarn:
		line = "::warning::" + escapeCommandData(msg)
	case r.Level < slog.LevelInfo:
		line = "::debug::" + escapeCommandData(msg)
	default:
		line = msg
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *ActionsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ActionsHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: renderAttrs(h.attrs, h.group, attrs),
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *ActionsHandler) WithGroup(name string) slog.Handler {
	return &ActionsHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: h.attrs,
		group: joinGroup(h.group, name),
	}
}

var commandDataEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
)

// escapeCommandData encodes the characters the runner treats as command
// delimiters.
func escapeCommandData(s string) string {
	return commandDataEscaper.Replace(s)
}
