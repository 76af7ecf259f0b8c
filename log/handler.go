// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"time"

	"github.com/holiman/uint256"
	"github.com/mattn/go-isatty"
)

const timeFormat = "2006-01-02T15:04:05-0700"

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// LevelString returns the 4 letter label of the level.
func LevelString(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return "TRCE"
	case l < LevelInfo:
		return "DBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARN"
	case l < LevelCrit:
		return "EROR"
	default:
		return "CRIT"
	}
}

var levelColors = map[string]string{
	"TRCE": "\x1b[34m",
	"DBUG": "\x1b[36m",
	"INFO": "\x1b[32m",
	"WARN": "\x1b[33m",
	"EROR": "\x1b[31m",
	"CRIT": "\x1b[35m",
}

// IsTerminal reports whether f is attached to a terminal, so colored output can be enabled.
func IsTerminal(f interface{ Fd() uintptr }) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewTerminalHandlerWithLevel returns a human readable handler,
//
//	t=2025-01-02T15:04:05+0000 lvl=INFO msg=staked pkg=staker account=0x..
//
// with the level label colored when useColor is set.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Leveler, useColor bool) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			attr = builtinReplace(groups, attr, true)
			if useColor && attr.Key == "lvl" {
				label := attr.Value.String()
				attr.Value = slog.StringValue(levelColors[label] + label + "\x1b[0m")
			}
			return attr
		},
	})
}

// JSONHandler returns a handler which prints records at all levels in JSON format.
func JSONHandler(wr io.Writer) slog.Handler {
	return JSONHandlerWithLevel(wr, LevelTrace)
}

// JSONHandlerWithLevel returns a handler which prints records in JSON format that are at least
// the specified level.
func JSONHandlerWithLevel(wr io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: builtinReplaceJSON,
		Level:       level,
	})
}

func builtinReplaceJSON(groups []string, attr slog.Attr) slog.Attr {
	return builtinReplace(groups, attr, false)
}

func builtinReplace(_ []string, attr slog.Attr, logfmt bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			if logfmt {
				return slog.String("t", attr.Value.Time().Format(timeFormat))
			}
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.Any("lvl", LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if logfmt {
			attr = slog.String(attr.Key, v.Format(timeFormat))
		}
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}
