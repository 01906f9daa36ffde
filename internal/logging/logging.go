// Package logging configures the charmbracelet/log loggers used by clipfind.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Format selects the log output format.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

var (
	mu   sync.Mutex
	root = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
)

// ParseFormat converts a string to a Format, returning FormatText for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "logfmt":
		return FormatLogfmt
	default:
		return FormatText
	}
}

// ParseLevel converts a string to a log.Level, defaulting to Info.
func ParseLevel(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Setup configures the root logger. Call it before New so that package
// loggers inherit the output and level.
func Setup(w io.Writer, level log.Level, format Format) {
	mu.Lock()
	defer mu.Unlock()

	root.SetOutput(w)
	root.SetLevel(level)
	switch format {
	case FormatJSON:
		root.SetFormatter(log.JSONFormatter)
	case FormatLogfmt:
		root.SetFormatter(log.LogfmtFormatter)
	default:
		root.SetFormatter(log.TextFormatter)
	}
	log.SetDefault(root)
}

// New returns a logger for a package or component.
func New(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root.WithPrefix(prefix)
}

// OpenFile opens the log file under the XDG state directory for appending.
// The TUI logs there so output does not corrupt the alternate screen.
func OpenFile() (*os.File, error) {
	path, err := xdg.StateFile("clipfind/clipfind.log")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304 - path is derived from the XDG state directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
