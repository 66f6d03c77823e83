package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface used across toptube-server and the CLI.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger

	// Slog exposes the handler chain to libraries that accept *slog.Logger
	// (the config watcher, the certificate reloader).
	Slog() *slog.Logger
}

// Config selects level, format and destination. It mirrors the log
// section of the server configuration.
type Config struct {
	Level     string
	Format    string // "json" (default) or "text"
	Output    io.Writer
	AddSource bool
}

// level is shared by every Logger built by New, so a config reload that
// changes log.level takes effect for loggers already handed out.
var level = new(slog.LevelVar)

// New builds a Logger writing to cfg.Output, or stderr when unset.
// Attribute values that look like credentials are masked before encoding.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return &slogLogger{logger: slog.New(newHandler(out, cfg.Format, cfg.AddSource))}, nil
}

func newHandler(out io.Writer, format string, addSource bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	if f := strings.ToLower(format); f == "text" || f == "console" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// SetLevel applies a new minimum level and reports whether it differed
// from the current one.
func SetLevel(name string) bool {
	next := parseLevel(name)
	if next == level.Level() {
		return false
	}
	level.Set(next)
	return true
}

// Level returns the current minimum level in the form accepted by
// the log.level setting.
func Level() string {
	return strings.ToLower(level.Level().String())
}

// parseLevel accepts the slog level names in any case plus "warning".
// Anything unrecognised falls back to info; config validation rejects
// bad names before they get here.
func parseLevel(name string) slog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	var l slog.Level
	if name == "" || l.UnmarshalText([]byte(name)) != nil {
		return slog.LevelInfo
	}
	return l
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func (l *slogLogger) logCtx() context.Context {
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.logCtx(), msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.logCtx(), msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.logCtx(), msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.logCtx(), msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

func (l *slogLogger) Slog() *slog.Logger { return l.logger }

// fallback is what FromContext hands out when no logger was attached.
var fallback atomic.Pointer[slogLogger]

func init() {
	fallback.Store(&slogLogger{logger: slog.New(newHandler(os.Stderr, "json", false))})
}

// SetDefault makes l the fallback logger and the slog default, so
// libraries that log through slog land in the same stream.
func SetDefault(l Logger) {
	sl, ok := l.(*slogLogger)
	if !ok {
		return
	}
	fallback.Store(sl)
	slog.SetDefault(sl.logger)
}

// Default returns the fallback logger.
func Default() Logger {
	return fallback.Load()
}
