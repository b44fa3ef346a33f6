// Package logger provides the application logger built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Level controls the minimum severity that gets emitted.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// LoggerInterface is the logging contract used across the application.
// The *c variants accept an extra caller-skip count so wrappers can report
// their caller's location instead of their own.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Logger implements LoggerInterface with a slog JSON handler.
type Logger struct {
	handler slog.Handler
	level   Level
}

// Events allows hooking specific log events (reserved for future use).
type Events struct {
	Error func(ctx context.Context, msg string)
}

// New creates a Logger writing JSON records to w. The service name is
// attached to every record.
func New(w io.Writer, minLevel Level, serviceName string, events *Events) *Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(minLevel),
	})

	if serviceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", serviceName)})
	}

	_ = events

	return &Logger{handler: handler, level: minLevel}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelDebug, 3, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelInfo, 3, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelWarn, 3, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelError, 3, msg, args...)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, slog.LevelDebug, caller, msg, args...)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, slog.LevelInfo, caller, msg, args...)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, slog.LevelWarn, caller, msg, args...)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, slog.LevelError, caller, msg, args...)
}

// Slog exposes the underlying handler as a *slog.Logger for components that
// take the standard library logger directly.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(l.handler)
}

func (l *Logger) write(ctx context.Context, level slog.Level, caller int, msg string, args ...any) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(caller, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)

	_ = l.handler.Handle(ctx, r)
}

var _ LoggerInterface = (*Logger)(nil)
