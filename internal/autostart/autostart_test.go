package autostart

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"plain", Command{Executable: "/usr/bin/glucoplan", Args: []string{"monitor"}}, "/usr/bin/glucoplan monitor"},
		{"spaces", Command{Executable: "/opt/my apps/glucoplan", Args: []string{"monitor", "--settings", "/tmp/a b.json"}},
			`"/opt/my apps/glucoplan" monitor --settings "/tmp/a b.json"`},
		{"no args", Command{Executable: "glucoplan"}, "glucoplan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDesktopEntry(t *testing.T) {
	got := desktopEntry(Command{Executable: "/usr/bin/glucoplan", Args: []string{"monitor"}})
	if !strings.Contains(got, "Exec=/usr/bin/glucoplan monitor\n") {
		t.Errorf("desktopEntry() missing Exec line:\n%s", got)
	}
	if !strings.HasPrefix(got, "[Desktop Entry]") {
		t.Errorf("desktopEntry() should start with the group header")
	}
}

func TestLaunchAgent(t *testing.T) {
	got := launchAgent(Command{Executable: "/Applications/glucoplan", Args: []string{"monitor", "--profile", "a&b.yaml"}})
	for _, want := range []string{
		"<string>com.glucoplan</string>",
		"<string>/Applications/glucoplan</string>",
		"<string>monitor</string>",
		"<string>a&amp;b.yaml</string>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("launchAgent() missing %q", want)
		}
	}
}

func TestEnableDisable_Linux(t *testing.T) {
	if runtime.GOOS != osLinux {
		t.Skip("XDG autostart is linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	enabled, err := IsEnabled()
	if err != nil || enabled {
		t.Fatalf("IsEnabled() = %v, %v, want false, nil", enabled, err)
	}

	if err := Enable(Command{Executable: "/usr/bin/glucoplan", Args: []string{"monitor"}}); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	enabled, _ = IsEnabled()
	if !enabled {
		t.Error("IsEnabled() = false after Enable()")
	}

	path, _ := Location()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "Exec=/usr/bin/glucoplan monitor") {
		t.Errorf("desktop file = %s", data)
	}

	if err := Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if err := Disable(); err != nil {
		t.Errorf("second Disable() error = %v, want nil", err)
	}
	enabled, _ = IsEnabled()
	if enabled {
		t.Error("IsEnabled() = true after Disable()")
	}
}
