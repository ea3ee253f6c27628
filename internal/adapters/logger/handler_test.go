package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/toolcache/internal/adapters/logger"
	"go.trai.ch/toolcache/internal/ui/style"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		msg   string
		want  string
	}{
		{name: "info", level: slog.LevelInfo, msg: "information", want: "information\n"},
		{name: "warn", level: slog.LevelWarn, msg: "careful", want: "! careful\n"},
		{name: "error", level: slog.LevelError, msg: "failed", want: "✗ failed\n"},
		{name: "debug filtered", level: slog.LevelDebug, msg: "noise", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_LevelIcons(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	lg.Debug("checking cache")
	lg.Warn("slow mirror")
	lg.Error("build failed")

	assert.Equal(t,
		style.Circle+" checking cache\n"+style.Warning+" slow mirror\n"+style.Cross+" build failed\n",
		buf.String())
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, nil).
		WithAttrs([]slog.Attr{slog.String("tool", "golangci-lint")}).
		WithGroup("cache")
	lg := slog.New(h)

	lg.Info("hit",
		slog.String("version", "v1.55.2"),
		slog.Group("entry", slog.Int64("size", 1024)),
	)

	g := goldie.New(t)
	g.Assert(t, "handler_attrs", buf.Bytes())
}

func TestPrettyHandler_DynamicLevel(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	level := &slog.LevelVar{}
	buf := &bytes.Buffer{}
	lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: level}))

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelDebug)
	lg.Debug("shown")
	assert.Equal(t, "○ shown\n", buf.String())
}

func TestActionsHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		msg   string
		want  string
	}{
		{name: "info", level: slog.LevelInfo, msg: "plain line", want: "plain line\n"},
		{name: "warn", level: slog.LevelWarn, msg: "careful", want: "::warning::careful\n"},
		{name: "error", level: slog.LevelError, msg: "a\nb", want: "::error::a%0Ab\n"},
		{name: "debug", level: slog.LevelDebug, msg: "detail", want: "::debug::detail\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewActionsHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			lg.Log(t.Context(), tt.level, tt.msg)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestActionsHandler_WithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	h := logger.NewActionsHandler(buf, nil).WithAttrs([]slog.Attr{slog.String("tool", "stringer")})
	slog.New(h).Warn("slow")

	assert.Equal(t, "::warning::slow tool=stringer\n", buf.String())
}

func TestEscapeCommandData(t *testing.T) {
	assert.Equal(t, "100%25 done%0D%0Anext", logger.EscapeCommandData("100% done\r\nnext"))
}
