// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin facade over the go-ethereum structured logger.
// Package level loggers obtained via WithContext resolve the root logger on
// every call, so the handler installed by SetDefault at start-up applies to
// loggers created during package initialization.
package log

import (
	"log/slog"
	"os"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Levels used by the verbosity flag, same numbering as the legacy log15 levels.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

// Logger writes structured key/value records.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

// FromLegacyLevel converts a verbosity number into a slog level.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case LegacyLevelCrit:
		return LevelCrit
	case LegacyLevelError:
		return LevelError
	case LegacyLevelWarn:
		return LevelWarn
	case LegacyLevelInfo:
		return LevelInfo
	case LegacyLevelDebug:
		return LevelDebug
	case LegacyLevelTrace:
		return LevelTrace
	}
	if lvl > LegacyLevelTrace {
		return LevelTrace
	}
	return LevelCrit
}

// NewLogger creates a root-capable logger writing to h.
func NewLogger(h slog.Handler) gethlog.Logger {
	return gethlog.NewLogger(h)
}

// SetDefault replaces the root logger.
func SetDefault(l gethlog.Logger) {
	gethlog.SetDefault(l)
}

// Root returns the current root logger.
func Root() Logger {
	return &lazyLogger{}
}

// WithContext returns a logger carrying ctx on every record.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) resolve() gethlog.Logger {
	if len(l.ctx) == 0 {
		return gethlog.Root()
	}
	return gethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(append(merged, l.ctx...), ctx...)
	return &lazyLogger{ctx: merged}
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.resolve().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.resolve().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.resolve().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.resolve().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.resolve().Error(msg, ctx...) }

// Crit logs at the critical level and terminates the process.
func (l *lazyLogger) Crit(msg string, ctx ...any) {
	l.resolve().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// Trace logs on the root logger.
func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }

// Debug logs on the root logger.
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }

// Info logs on the root logger.
func Info(msg string, ctx ...any) { Root().Info(msg, ctx...) }

// Warn logs on the root logger.
func Warn(msg string, ctx ...any) { Root().Warn(msg, ctx...) }

// Error logs on the root logger.
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
