// Package logger builds the structured loggers used by the pool and CLI.
//
// Output is log/slog; format is "text" or "json", level one of
// DEBUG, INFO, WARN, ERROR (case-insensitive). The level can be changed at
// runtime, which is how config reloads reach already-built components.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// Logger is a slog.Logger with an adjustable level and an owned output.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	out   io.Closer
}

// New opens the configured output and returns a logger writing to it.
func New(cfg Config) (*Logger, error) {
	var (
		w   io.Writer
		out io.Closer
	)
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		w, out = f, f
	}
	l := NewWithWriter(w, cfg.Level, cfg.Format)
	l.out = out
	return l, nil
}

// NewWithWriter returns a logger writing to w.
// This is primarily useful for testing.
func NewWithWriter(w io.Writer, level, format string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h), level: lv}
}

// SetLevel changes the minimum level; unknown names mean INFO.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Close releases a log file. It is a no-op for stdout and stderr.
func (l *Logger) Close() error {
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog; unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
