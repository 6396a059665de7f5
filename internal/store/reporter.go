package store

import (
	"context"
	"log/slog"
)

// Reporter shows a failure to the user. ShowError must not block.
type Reporter interface {
	ShowError(message string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(message string)

// ShowError implements Reporter.
func (f ReporterFunc) ShowError(message string) { f(message) }

// LogReporter reports failures through a structured logger. The CLI uses it
// because commands print the returned error themselves.
type LogReporter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogReporter returns a reporter that logs at debug level.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger, level: slog.LevelDebug}
}

// AtLevel returns a copy that logs at the given level.
func (r *LogReporter) AtLevel(level slog.Level) *LogReporter {
	return &LogReporter{logger: r.logger, level: level}
}

// ShowError implements Reporter.
func (r *LogReporter) ShowError(message string) {
	r.logger.Log(context.Background(), r.level, message)
}
