// Package logging builds the charmbracelet/log loggers used across the tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix tags every line
const Prefix = "examreview"

// New returns a logger writing to w at the given level
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

// NewFile returns a logger appending to path, for use while a full-screen
// interface owns the terminal. The returned closer releases the file.
func NewFile(level, path string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := New(level, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	logger.SetTimeFormat(time.RFC3339)
	return logger, f, nil
}
