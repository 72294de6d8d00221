// Package logging builds the process-wide zap.Logger, optionally
// tee'ing to a file as well as stdout.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	EnableFileLog bool
	FilePath      string
	Development   bool
}

// New builds a zap.Logger with a JSON encoder and ISO8601 timestamps,
// writing to stdout and, if enabled, also to a file.
func New(opts Options) (*zap.Logger, error) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Development {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.EnableFileLog {
		path := opts.FilePath
		if path == "" {
			path = "matchbookd.log"
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: failed to open log file %s: %w", path, err)
		}
		writers = append(writers, zapcore.AddSync(f))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), level)
	return zap.New(core, zap.AddCaller()).With(zap.String("service", "matchbookd")), nil
}
