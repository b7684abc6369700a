// Package logger builds the charmbracelet/log loggers used across phrasekit.
// Logs go to stderr: stdout carries msgpack frames when serving.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// Setup points the default logger and every later New at w, and raises the
// level to debug when asked.
func Setup(w io.Writer, debug bool) {
	mu.Lock()
	out = w
	mu.Unlock()

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	log.SetDefault(log.NewWithOptions(w, log.Options{
		ReportTimestamp: debug,
		Formatter:       log.TextFormatter,
		Level:           level,
	}))
}

// New creates a component logger that respects the global log level.
func New(prefix string) *log.Logger {
	mu.Lock()
	w := out
	mu.Unlock()
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithConfig creates a charm log with custom config
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	mu.Lock()
	w := out
	mu.Unlock()
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}
