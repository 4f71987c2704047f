// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     logging
// Description: Log levels shared by all souffleur components
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import "go.uber.org/zap/zapcore"

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// zapLevel maps the level onto zap's level
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
