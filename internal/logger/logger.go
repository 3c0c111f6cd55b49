// Package logger builds the structured logger used across the client.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	multi "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below debug and is used for raw protocol traffic.
const LevelTrace = slog.Level(-8)

// Options controls where and how much is logged.
type Options struct {
	Level string
	// File, when set, receives JSON records with rotation.
	File string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a logger writing text to Output and, when File is set, JSON
// to a rotated file.
func New(opts Options) *slog.Logger {
	level := &slog.LevelVar{}
	level.Set(ParseLevel(opts.Level))

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlers := []slog.Handler{slog.NewTextHandler(out, handlerOpts)}

	if opts.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    64,
			MaxBackups: 8,
			MaxAge:     30,
			Compress:   true,
		}, handlerOpts))
	}

	return slog.New(multi.Fanout(handlers...))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
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

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
