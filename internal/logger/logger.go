package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Prefix:          "mdirtree",
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that appends to a file and to any
// additional writers
func NewFileLogger(path string, level log.Level, also ...io.Writer) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		f.Close()
	}

	return NewMultiLogger(level, append([]io.Writer{f}, also...)...), cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level log.Level, writers ...io.Writer) *Logger {
	return NewWithLevel(io.MultiWriter(writers...), level)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel maps a config value onto a log level, defaulting to info
func ParseLevel(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Parsed logs a successfully parsed structure
func (l *Logger) Parsed(source, format string, nodes int) {
	l.Debug("structure parsed",
		"source", source,
		"format", format,
		"nodes", nodes)
}

// MaterializeStarted logs the start of a materialize run
func (l *Logger) MaterializeStarted(runID, root string, dryRun bool, policy string) {
	l.Info("materialize started",
		"run_id", runID,
		"root", root,
		"dry_run", dryRun,
		"on_conflict", policy)
}

// MaterializeCompleted logs the end of a materialize run
func (l *Logger) MaterializeCompleted(runID string, entries, changed int, duration time.Duration) {
	l.Info("materialize completed",
		"run_id", runID,
		"entries", entries,
		"changed", changed,
		"duration", duration.Round(time.Millisecond))
}

// Entry logs the outcome for a single path
func (l *Logger) Entry(path, kind, outcome string) {
	l.Debug("entry",
		"path", path,
		"kind", kind,
		"outcome", outcome)
}

// Conflict logs a path whose existing state differs from the plan
func (l *Logger) Conflict(path, reason, policy string) {
	l.Warn("conflict",
		"path", path,
		"reason", reason,
		"on_conflict", policy)
}

// PathError logs an I/O failure for a specific path
func (l *Logger) PathError(path string, err error) {
	l.Error("filesystem error",
		"path", path,
		"error", err)
}

// ConfigLoaded logs the effective configuration source
func (l *Logger) ConfigLoaded(path string, found bool) {
	l.Debug("config loaded",
		"path", path,
		"found", found)
}
