// Package logging builds the leveled JSON loggers used by every component.
// It relies on gommon's logger, the same one Echo uses for its own output,
// so server logs and HTTP gateway logs share a single format.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// New returns a logger whose prefix is the component name.  The level is
// read from LOG_LEVEL (debug, info, warn, error, off) and defaults to info.
func New(component string) *log.Logger {
	l := log.New(component)
	l.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	return l
}

// Discard returns a logger that writes nowhere.  Tests use it to keep
// output quiet.
func Discard(component string) *log.Logger {
	l := log.New(component)
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// ParseLevel maps a level name to a gommon level.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	default:
		return log.INFO
	}
}
