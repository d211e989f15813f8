package config

import (
	"log/slog"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logLevels = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

// SlogLevel maps the configured level; unknown values map to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	if lvl, ok := logLevels[LogLevel(l.Level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// JSON reports whether JSON output was requested.
func (l LoggingConfig) JSON() bool { return LogFormat(l.Format) == LogFormatJSON }
