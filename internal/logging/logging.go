// Package logging provides the structured logger shared by the service layer
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceCLI        = "cli"
	SourceProfile    = "profile"
	SourceNightscout = "nightscout"
	SourceMonitor    = "monitor"
	SourceNotify     = "notify"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger
)

// Init configures the base logger.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(os.Stderr, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339,
			Level:           log.InfoLevel,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})
	})
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

// SetLevel changes the level of the base logger. Unknown names keep the current level.
func SetLevel(name string) {
	Init()
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		baseLogger.Warn("unknown log level, keeping current", "level", name)
		return
	}
	baseLogger.SetLevel(level)
}
