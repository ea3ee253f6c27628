package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/toolcache/internal/ui/output"
	"go.trai.ch/toolcache/internal/ui/style"
)

// PrettyHandler is a slog.Handler that produces human-readable colored lines.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []string
	group string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	return NewPrettyHandlerWithProfile(w, output.ColorProfile, opts)
}

// NewPrettyHandlerWithProfile creates a PrettyHandler with a custom color
// profile selector.
func NewPrettyHandlerWithProfile(
	w io.Writer,
	profileFn func() termenv.Profile,
	opts *slog.HandlerOptions,
) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.NewWithProfile(w, profileFn),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		msg = style.Cross + " " + r.Message
		color = termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		msg = style.Warning + " " + r.Message
		color = termenv.RGBColor(string(style.Yellow))
	case r.Level < slog.LevelInfo:
		msg = style.Circle + " " + r.Message
		color = termenv.RGBColor(string(style.Slate))
	default:
		msg = r.Message
		color = termenv.RGBColor(string(style.Slate))
	}

	if attrs := recordAttrs(h.group, h.attrs, &r); len(attrs) > 0 {
		msg += " " + strings.Join(attrs, " ")
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")

	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: renderAttrs(h.attrs, h.group, attrs),
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: joinGroup(h.group, name),
	}
}

// renderAttrs renders attrs under group and appends them to a copy of base.
func renderAttrs(base []string, group string, attrs []slog.Attr) []string {
	out := make([]string, len(base), len(base)+len(attrs))
	copy(out, base)
	for _, attr := range attrs {
		out = appendAttr(out, group, attr)
	}
	return out
}

func joinGroup(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// recordAttrs appends the record attributes to the pre-rendered handler ones.
func recordAttrs(group string, rendered []string, r *slog.Record) []string {
	parts := make([]string, len(rendered), len(rendered)+r.NumAttrs())
	copy(parts, rendered)
	r.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, group, attr)
		return true
	})
	return parts
}

func appendAttr(parts []string, group string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		prefix := joinGroup(group, attr.Key)
		for _, sub := range attr.Value.Group() {
			parts = appendAttr(parts, prefix, sub)
		}
		return parts
	}

	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return append(parts, key+"="+attr.Value.String())
}
