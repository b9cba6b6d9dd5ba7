// Package log builds the application logger. The terminal belongs to the
// TUI, so records go to a rotating JSON-lines file instead of stdout.
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. Zero values pick sensible defaults.
type Options struct {
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

// DefaultFile returns the log path used when Options.File is empty.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sentiscribe", "sentiscribe.log")
}

// New returns a logger writing to a rotating file, and a func that flushes
// and closes it.
func New(opts Options) (*zap.Logger, func(), error) {
	if opts.File == "" {
		opts.File = DefaultFile()
	}
	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level)
	logger := zap.New(core, zap.AddCaller())

	closeFn := func() {
		_ = logger.Sync()
		_ = sink.Close()
	}
	return logger, closeFn, nil
}
