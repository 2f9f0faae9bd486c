// Package logging configures the process-wide slog logger.
//
// Logs never go to stdout, which carries command output only. By default they
// are discarded. A log file (rotated by lumberjack) and a colored stderr
// handler can be enabled independently.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/juanibiapina/ptree/internal/config"
)

// Default rotation settings.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

func init() {
	// Discard logs until Init is called
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Init installs the default logger. The returned closer releases the log
// file, if one was opened.
func Init(cfg config.LogConfig, verbose bool, stderr io.Writer) (io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		w, err := fileWriter(cfg)
		if err != nil {
			return nil, err
		}
		closer = w
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	if verbose {
		handlers = append(handlers, NewColorTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}, false))
	}

	switch len(handlers) {
	case 0:
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	case 1:
		slog.SetDefault(slog.New(handlers[0]))
	default:
		slog.SetDefault(slog.New(fanout(handlers)))
	}
	return closer, nil
}

func fileWriter(cfg config.LogConfig) (*lj.Logger, error) {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lj.Logger{
		Filename:   cfg.File,
		MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   cfg.Compress,
	}, nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
