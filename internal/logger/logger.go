// Package logger builds the root structured logger shared by all components.
package logger

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns a logger named "framecast". level is an hclog level name; format is
// "json" for JSON lines, anything else for human readable text.
func New(level, format string) hclog.Logger {
	return newWithOutput(level, format, os.Stderr)
}

func newWithOutput(level, format string, out io.Writer) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "framecast",
		Level:      lvl,
		Output:     out,
		JSONFormat: format == "json",
	})
}
