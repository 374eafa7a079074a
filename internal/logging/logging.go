// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger used across firewatch.
//
// Loggers are slog-backed and carry key/value attributes. Components either
// receive a *Logger or use the package-level helpers, which write through a
// process-wide default. An optional syslog mirror duplicates records to a
// remote collector.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "text" or "json".
	Format string
	// Output defaults to stderr when nil.
	Output io.Writer
	// Syslog optionally mirrors records to a remote syslog collector.
	Syslog SyslogConfig
}

// DefaultConfig returns the standard daemon configuration: info level,
// text format, stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}

// Logger wraps slog with the firewatch conventions.
type Logger struct {
	s *slog.Logger
}

// New builds a Logger from cfg. A broken syslog mirror is reported on the
// primary output and skipped rather than failing construction.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Syslog.Enabled {
		if w, err := NewSyslogWriter(cfg.Syslog); err == nil {
			out = io.MultiWriter(out, w)
		} else {
			fmt.Fprintf(out, "logging: syslog mirror disabled: %v\n", err)
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{s: slog.New(h)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs at debug level with key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.s.Debug(msg, kv...) }

// Info logs at info level with key/value pairs.
func (l *Logger) Info(msg string, kv ...any) { l.s.Info(msg, kv...) }

// Warn logs at warn level with key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) { l.s.Warn(msg, kv...) }

// Error logs at error level with key/value pairs.
func (l *Logger) Error(msg string, kv ...any) { l.s.Error(msg, kv...) }

// With returns a Logger carrying the given attributes on every record.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{s: l.s.With(kv...)}
}

// WithComponent returns a Logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithError returns a Logger carrying err as an attribute.
func (l *Logger) WithError(err error) *Logger {
	return l.With("error", err)
}

var (
	defaultMu sync.RWMutex
	defaultL  = New(DefaultConfig())
)

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultL = l
}

// Default returns the process-wide default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultL
}

// Debug logs to the default logger.
func Debug(msg string, kv ...any) { Default().Debug(msg, kv...) }

// Info logs to the default logger.
func Info(msg string, kv ...any) { Default().Info(msg, kv...) }

// Warn logs to the default logger.
func Warn(msg string, kv ...any) { Default().Warn(msg, kv...) }

// Error logs to the default logger.
func Error(msg string, kv ...any) { Default().Error(msg, kv...) }

// WithComponent tags the default logger with a component name.
func WithComponent(name string) *Logger { return Default().WithComponent(name) }

// APILog is the printf-style bridge used by the HTTP layer. level is one of
// debug, info, warn, error.
func APILog(level string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l := Default().WithComponent("api")
	switch strings.ToLower(level) {
	case "debug":
		l.Debug(msg)
	case "warn", "warning":
		l.Warn(msg)
	case "error":
		l.Error(msg)
	default:
		l.Info(msg)
	}
}
