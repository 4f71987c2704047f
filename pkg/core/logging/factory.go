// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     logging
// Description: Factory functions for zap-backed key/value loggers
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Component name, shown in every entry
	Name string

	// Log level (debug, info, warn, error)
	Level string

	// Output format: "json" or "console" ("text" is accepted as console)
	Format string

	// Output is the primary sink (default: os.Stderr)
	Output io.Writer

	// Additional outputs besides the primary one
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(name string) LoggerConfig {
	return LoggerConfig{
		Name:   name,
		Level:  "info",
		Format: "console",
	}
}

// Logger is a key/value logger on top of zap's sugared logger
type Logger struct {
	sugar *zap.SugaredLogger
	cfg   LoggerConfig
	name  string
	nop   bool
}

// NewLogger creates a logger from the given configuration
func NewLogger(cfg LoggerConfig) *Logger {
	return build(cfg, parseLevel(cfg.Level))
}

// New creates a console logger at info level
func New(name string) *Logger {
	return NewLogger(DefaultLoggerConfig(name))
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), nop: true}
}

func build(cfg LoggerConfig, level Level) *Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}
	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	// Caller info only pays off while debugging
	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if level == LevelDebug {
		encoderConfig.CallerKey = "caller"
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "json") {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = coloredLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level.zapLevel())

	base := zap.New(core, opts...)
	if cfg.Name != "" {
		base = base.Named(cfg.Name)
	}

	return &Logger{
		sugar: base.Sugar(),
		cfg:   cfg,
		name:  cfg.Name,
	}
}

// coloredLevelEncoder colors the level for terminal output
func coloredLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.ErrorLevel:
		enc.AppendString("\033[1;31m" + level.String() + "\033[0m")
	case zapcore.WarnLevel:
		enc.AppendString("\033[1;33m" + level.String() + "\033[0m")
	case zapcore.InfoLevel:
		enc.AppendString("\033[1;36m" + level.String() + "\033[0m")
	case zapcore.DebugLevel:
		enc.AppendString("\033[1;37m" + level.String() + "\033[0m")
	default:
		enc.AppendString(level.String())
	}
}

// parseLevel converts a string level to Level
func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// Name returns the component name of the logger
func (l *Logger) Name() string {
	return l.name
}

// Named returns a child logger for a sub-component
func (l *Logger) Named(name string) *Logger {
	child := l.sugar.Named(name)
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &Logger{sugar: child, cfg: l.cfg, name: full, nop: l.nop}
}

// With returns a logger that adds the key/value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), cfg: l.cfg, name: l.name, nop: l.nop}
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	if l.nop {
		return l
	}
	child := build(l.cfg, level)
	child.name = l.name
	return child
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
