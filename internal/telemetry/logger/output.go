package logger

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures rotated file output.
type FileConfig struct {
	// Path is the log file. Empty selects stdout.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// OpenOutput returns the writer described by cfg. The caller closes it
// on shutdown; closing stdout output is a no-op.
func OpenOutput(cfg FileConfig) io.WriteCloser {
	if cfg.Path == "" {
		return nopCloser{os.Stdout}
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
