// Package log builds the application's slog loggers from configuration.
//
//	w, err := log.Open(cfg.Log)
//	logger := log.New(w, cfg.Log, "task.orchestrator", redactor)
//	logger.Info("task created", slog.String("task_id", id))
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/km-arc/go-planteuf/framework/config"
	"github.com/km-arc/go-planteuf/framework/sanitize"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.LevelError + 4

var levels = map[string]slog.Level{
	"CRITICAL": LevelCritical,
	"ERROR":    slog.LevelError,
	"WARNING":  slog.LevelWarn,
	"INFO":     slog.LevelInfo,
	"DEBUG":    slog.LevelDebug,
	"NOTSET":   slog.LevelDebug,
}

// ParseLevel maps a LOGGING_LEVEL name to a slog level. Unknown names yield
// slog.LevelInfo.
func ParseLevel(name string) slog.Level {
	if l, ok := levels[strings.ToUpper(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Open returns the log destination: the configured file, truncated, or
// stderr when no file is set. Closing stderr is a no-op.
func Open(cfg config.LogConfig) (io.WriteCloser, error) {
	if cfg.Filename == "" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.OpenFile(cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// New returns a logger writing to w in the configured format, tagged with
// a "logger" attribute. A non-nil redactor rewrites attribute values whose
// key it matches.
func New(w io.Writer, cfg config.LogConfig, name string, redactor *sanitize.Sanitizer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: replaceAttr(redactor),
	}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	if name != "" {
		logger = logger.With(slog.String("logger", name))
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replaceAttr(redactor *sanitize.Sanitizer) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey, slog.MessageKey, slog.SourceKey:
			return a
		case slog.LevelKey:
			if l, ok := a.Value.Any().(slog.Level); ok && l >= LevelCritical {
				return slog.String(slog.LevelKey, "CRITICAL")
			}
			return a
		}
		if redactor == nil || a.Value.Kind() == slog.KindGroup {
			return a
		}
		out := redactor.Sanitize(map[string]any{a.Key: a.Value.Any()})
		v, ok := out[a.Key]
		if !ok {
			return slog.Attr{}
		}
		return slog.Any(a.Key, v)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
