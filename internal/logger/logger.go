// Package logger builds the charm loggers used by the chatpulse commands.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
)

// New creates a text logger on stderr at the global log level.
func New(prefix string) *log.Logger {
	return NewWithConfig(os.Stderr, prefix, log.GetLevel(), log.TextFormatter)
}

// NewWithConfig creates a charm logger with custom config
func NewWithConfig(w io.Writer, prefix string, level log.Level, f log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       f,
	})
}

// ParseLevel accepts debug, info, warn, error and fatal. Empty means info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, internalerr.InvalidConfig("log level %q", s)
	}
	return lvl, nil
}

// ParseFormatter accepts text, json and logfmt. Empty means text.
func ParseFormatter(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, internalerr.InvalidConfig("log format %q", s)
	}
}
