package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerInitializers(t *testing.T) {
	Init()
	if l := Logger(SourceCLI); l == nil {
		t.Fatal("Logger returned nil")
	}
	if l := Logger(SourceProfile); l == nil {
		t.Fatal("Logger returned nil for profile source")
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("error")
	if got := Logger(SourceMonitor).GetLevel(); got != log.ErrorLevel {
		t.Errorf("Logger().GetLevel() = %v, want error", got)
	}

	SetLevel("not-a-level")
	if got := Logger(SourceMonitor).GetLevel(); got != log.ErrorLevel {
		t.Errorf("Logger().GetLevel() after unknown level = %v, want error kept", got)
	}

	SetLevel("DEBUG")
	if got := Logger(SourceMonitor).GetLevel(); got != log.DebugLevel {
		t.Errorf("Logger().GetLevel() = %v, want debug", got)
	}
}
