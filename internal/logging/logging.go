// Package logging builds the hclog loggers used across contrastlens.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options configures a logger.
type Options struct {
	// Name is the root logger name.
	Name string

	// Level is an hclog level name such as "debug" or "info".
	// Unknown names fall back to info.
	Level string

	// JSON switches to structured JSON output.
	JSON bool

	// Quiet disables all output.
	Quiet bool

	// Output defaults to stderr.
	Output io.Writer
}

// New returns a logger configured from opts.
func New(opts Options) hclog.Logger {
	if opts.Quiet {
		return hclog.New(&hclog.LoggerOptions{
			Name:   opts.Name,
			Output: io.Discard,
			Level:  hclog.Off,
		})
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Output:     out,
		Level:      ParseLevel(opts.Level),
		JSONFormat: opts.JSON,
	})
}

// ParseLevel maps a level name to an hclog level.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(strings.TrimSpace(level))
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	return hclog.LevelFromString(strings.TrimSpace(level)) != hclog.NoLevel
}
