// Package logger provides the agent's own structured logging. It never
// persists per-process output; that is forwarded, not written to disk.
// It only carries the agent's own operational log (start/stop/crash/
// restart events, config errors).
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes where and how the agent's own log is written.
type Config struct {
	Dir        string // if set, the agent log is Dir/nurvus.log
	Level      slog.Level
	Color      bool // colorize level text; disabled when writing to a file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds the agent's slog.Logger per cfg. With Dir unset, it logs to
// stderr; with Color set it uses the ColorTextHandler, otherwise a plain
// slog.TextHandler, swapping handlers based on whether output is an
// interactive terminal or a rotated file.
func New(cfg Config) *slog.Logger {
	var w io.Writer = os.Stderr
	color := cfg.Color
	if cfg.Dir != "" {
		w = &lj.Logger{
			Filename:   filepath.Join(cfg.Dir, "nurvus.log"),
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		color = false // ANSI codes have no place in a rotated log file
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	if color {
		return slog.New(NewColorTextHandler(w, opts, true))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
