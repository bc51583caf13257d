// Package logger provides modifications to charmbracelet/log's default logger to be used in various files/packages.
package logger

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures a logger built by NewWithConfig. The zero value logs
// at info level with the text formatter and no timestamps.
type Options struct {
	Prefix    string
	Level     log.Level
	Caller    bool
	Timestamp bool
	Formatter log.Formatter
}

// New creates a charm logger writing to w at the global log level.
// Timestamps are only shown while debugging.
func New(prefix string, w io.Writer) *log.Logger {
	level := log.GetLevel()
	return NewWithConfig(w, Options{
		Prefix:    prefix,
		Level:     level,
		Timestamp: level <= log.DebugLevel,
	})
}

// NewWithConfig creates a new charm log with custom config
func NewWithConfig(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		Level:           opts.Level,
		ReportCaller:    opts.Caller,
		ReportTimestamp: opts.Timestamp,
		Formatter:       opts.Formatter,
	})
}
