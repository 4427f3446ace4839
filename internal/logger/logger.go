// Package logger builds the zap logger of the assistant and carries it through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tune the environment preset.
type Options struct {
	// Level overrides the preset level: debug, info, warn, error.
	Level string
	// File is a rotating JSON log written next to stderr.
	File string
	// MaxSizeMB rotates File once it reaches this size; zero means 1 MB.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept; zero means 5.
	MaxBackups int
}

const (
	defaultMaxSizeMB  = 1
	defaultMaxBackups = 5
)

// presets maps an environment name to its base zap configuration.
// Production logs JSON with ISO timestamps; the others log colored console lines.
var presets = map[string]func() zap.Config{
	"prod":   production,
	"local":  development,
	"dev":    development,
	"docker": development,
}

func production() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func development() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// NewLogger builds the logger for env. Errors and above carry a stack trace.
func NewLogger(env string, opts Options) (*zap.Logger, error) {
	preset, ok := presets[env]
	if !ok {
		return nil, fmt.Errorf("logger: unknown environment %q", env)
	}
	cfg := preset()

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: level %q: %w", opts.Level, err)
		}
		cfg.Level.SetLevel(lvl)
	}

	buildOpts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if opts.File != "" {
		buildOpts = append(buildOpts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore(opts, cfg))
		}))
	}

	l, err := cfg.Build(buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return l, nil
}

// fileCore writes JSON lines to a size-rotated file, whatever the console encoding.
func fileCore(opts Options, cfg zap.Config) zapcore.Core {
	size, backups := opts.MaxSizeMB, opts.MaxBackups
	if size <= 0 {
		size = defaultMaxSizeMB
	}
	if backups <= 0 {
		backups = defaultMaxBackups
	}
	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    size,
		MaxBackups: backups,
	}

	enc := cfg.EncoderConfig
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(sink), cfg.Level)
}
