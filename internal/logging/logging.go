// Package logging builds the logr.Logger used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
)

// Format selects the log line encoding.
type Format string

// Supported formats.
const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --log-format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (expected auto, text or json)", s)
	}
}

// Options configures New.
type Options struct {
	Format  Format
	Verbose bool
}

// New returns a logr.Logger writing to w. Auto format is text on a terminal
// and JSON otherwise. Verbose enables V(1) output.
func New(w io.Writer, opts Options) logr.Logger {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Formatter:       formatter(w, opts.Format),
	})
	return logr.FromSlogHandler(handler)
}

func formatter(w io.Writer, format Format) log.Formatter {
	switch format {
	case FormatJSON:
		return log.JSONFormatter
	case FormatText:
		return log.TextFormatter
	}
	if isTerminal(w) {
		return log.TextFormatter
	}
	return log.JSONFormatter
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
