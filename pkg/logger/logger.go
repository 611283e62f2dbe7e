// Package logger builds the service's structured zap logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. Level is case-insensitive: debug, info, warn,
// error, fatal; anything else means info.
type Options struct {
	Level string
	JSON  bool
	// File enables an additional rotated log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output replaces stdout, mainly for tests.
	Output io.Writer
}

// New returns the logger and a flush func to defer in main.
func New(opt Options) (*zap.Logger, func()) {
	lvl := ParseLevel(opt.Level)

	var enc zapcore.Encoder
	if opt.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	var out io.Writer = os.Stdout
	if opt.Output != nil {
		out = opt.Output
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(out), lvl)}

	if opt.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    max(1, opt.MaxSizeMB),
			MaxBackups: max(0, opt.MaxBackups),
			MaxAge:     max(0, opt.MaxAgeDays),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotator), lvl))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, func() { _ = l.Sync() }
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}
