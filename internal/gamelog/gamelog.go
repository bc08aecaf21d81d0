// Package gamelog provides structured logging grouped by the three
// severity groups original_source/jMUD's logging macros used (debug group:
// verbose/detail/debug; info group: info/warning/alert; error group:
// error/critical/fatal), expressed as slog levels and a "component"
// attribute instead of C preprocessor macros. The core itself only emits
// severity-tagged messages and lets the consumer plug in any backend; this
// is that backend, built the way the teacher repository builds its own
// logging (log/slog throughout udisondev-la2go/cmd/gameserver/main.go).
package gamelog

import (
	"log/slog"
	"os"
)

// Group names the three severity bands jMUD's log macros distinguished.
type Group string

const (
	GroupDebug Group = "debug" // verbose, detail, debug
	GroupInfo  Group = "info"  // info, warning, alert
	GroupError Group = "error" // error, critical, fatal
)

// LevelFor maps a Group to the slog.Level a message in that group should be
// logged at. Within a group the original further distinguished severities
// that slog doesn't split out (e.g. "alert" vs "warning"); callers wanting
// that resolution should add a "severity" attribute alongside the group.
func LevelFor(g Group) slog.Level {
	switch g {
	case GroupDebug:
		return slog.LevelDebug
	case GroupInfo:
		return slog.LevelInfo
	case GroupError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the process's root logger and installs it via
// slog.SetDefault, the same pattern
// udisondev-la2go/cmd/gameserver/main.go uses.
func Setup(levelName string, out *os.File) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(levelName),
	}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string log level to slog.Level, defaulting to Info
// for an invalid or empty value (mirrors
// udisondev-la2go/cmd/gameserver/main.go's parseLogLevel).
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a logger pre-tagged with a "component" attribute, for
// per-subsystem loggers (e.g. Component(base, "accept-worker")).
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", name)
}
