// Package logger implements ports.Logger on top of log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/ui/output"
	"go.trai.ch/zerr"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
	mu     sync.RWMutex
	format domain.LogFormat
	ansi   bool
	output io.Writer
}

// New creates a Logger writing pretty lines to stderr at info level.
func New() ports.Logger {
	l := &Logger{
		level:  &slog.LevelVar{},
		format: domain.LogFormatPretty,
		output: os.Stderr,
	}
	l.level.Set(slog.LevelInfo)
	l.logger = slog.New(l.handler())
	return l
}

// SetOutput updates the output destination, keeping the current format.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(l.handler())
}

// SetFormat switches the handler. Auto must be resolved by the caller;
// it falls back to pretty here.
func (l *Logger) SetFormat(format domain.LogFormat) error {
	if !format.Valid() {
		return zerr.With(domain.ErrInvalidLogFormat, "format", string(format))
	}
	if format == domain.LogFormatAuto {
		format = domain.LogFormatPretty
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.format = format
	l.logger = slog.New(l.handler())
	return nil
}

// SetForceANSI makes the pretty handler emit ANSI colors even when the
// output is not a terminal.
func (l *Logger) SetForceANSI(force bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ansi = force
	l.logger = slog.New(l.handler())
}

// SetVerbose enables debug records.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// Format reports the active format.
func (l *Logger) Format() domain.LogFormat {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.format
}

func (l *Logger) handler() slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level}
	switch l.format {
	case domain.LogFormatJSON:
		return slog.NewJSONHandler(l.output, opts)
	case domain.LogFormatActions:
		return NewActionsHandler(l.output, opts)
	default:
		if l.ansi {
			return NewPrettyHandlerWithProfile(l.output, output.ColorProfileANSI, opts)
		}
		return NewPrettyHandler(l.output, opts)
	}
}

// Debug logs a diagnostic message, shown only in verbose mode.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its full cause chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.format == domain.LogFormatJSON {
		l.logger.Error("operation failed", "error", err.Error())
		return
	}

	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}
