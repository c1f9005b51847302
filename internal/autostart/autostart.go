// Package autostart registers the glucose monitor to start at login
package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName        = "glucoplan"
	appDisplayName = "Glucoplan Monitor"

	runKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

	// OS constants
	osLinux   = "linux"
	osWindows = "windows"
	osDarwin  = "darwin"
)

// Command is the program started at login
type Command struct {
	Executable string
	Args       []string
}

// MonitorCommand returns the running binary invoked with the given arguments
func MonitorCommand(args ...string) (Command, error) {
	execPath, err := os.Executable()
	if err != nil {
		return Command{}, fmt.Errorf("failed to locate executable: %w", err)
	}
	return Command{Executable: execPath, Args: args}, nil
}

// Line renders the command for a shell-like Exec field
func (c Command) Line() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Executable}, c.Args...) {
		if strings.ContainsAny(p, " \t\"") {
			p = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() (bool, error) {
	switch runtime.GOOS {
	case osLinux:
		return isEnabledLinux()
	case osWindows:
		return isEnabledWindows()
	case osDarwin:
		return isEnabledMacOS()
	default:
		return false, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Enable registers c to run at login, replacing any earlier entry
func Enable(c Command) error {
	switch runtime.GOOS {
	case osLinux:
		return enableLinux(c)
	case osWindows:
		return enableWindows(c)
	case osDarwin:
		return enableMacOS(c)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Disable removes the login entry. A missing entry is not an error.
func Disable() error {
	switch runtime.GOOS {
	case osLinux:
		return disableLinux()
	case osWindows:
		return disableWindows()
	case osDarwin:
		return disableMacOS()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Location describes where the entry lives on this platform
func Location() (string, error) {
	switch runtime.GOOS {
	case osLinux:
		return linuxAutostartPath()
	case osWindows:
		return runKey + `\` + appName, nil
	case osDarwin:
		return macOSLaunchAgentPath()
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Linux implementation using XDG autostart
func linuxAutostartPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "autostart", appName+".desktop"), nil
}

func desktopEntry(c Command) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Comment=Projects glucose from Nightscout and alerts on lows and highs
Categories=Utility;
Terminal=false
StartupNotify=false
X-GNOME-Autostart-enabled=true
`, appDisplayName, c.Line())
}

func isEnabledLinux() (bool, error) {
	path, err := linuxAutostartPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	return err == nil, nil
}

func enableLinux(c Command) error {
	path, err := linuxAutostartPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(desktopEntry(c)), 0600)
}

func disableLinux() error {
	path, err := linuxAutostartPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Windows implementation using the registry Run key
func isEnabledWindows() (bool, error) {
	err := exec.Command("reg", "query", runKey, "/v", appName).Run()
	return err == nil, nil
}

func enableWindows(c Command) error {
	//nolint:gosec // G204: command comes from os.Executable() and fixed arguments
	return exec.Command("reg", "add", runKey,
		"/v", appName,
		"/t", "REG_SZ",
		"/d", c.Line(),
		"/f").Run()
}

func disableWindows() error {
	err := exec.Command("reg", "delete", runKey, "/v", appName, "/f").Run()
	if err != nil && strings.Contains(err.Error(), "not exist") {
		return nil
	}
	return err
}

// macOS implementation using LaunchAgents
func macOSLaunchAgentPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", "com."+appName+".plist"), nil
}

func launchAgent(c Command) string {
	var args strings.Builder
	for _, a := range append([]string{c.Executable}, c.Args...) {
		fmt.Fprintf(&args, "        <string>%s</string>\n", xmlEscape(a))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`, appName, args.String())
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func isEnabledMacOS() (bool, error) {
	path, err := macOSLaunchAgentPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	return err == nil, nil
}

func enableMacOS(c Command) error {
	path, err := macOSLaunchAgentPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(launchAgent(c)), 0600)
}

func disableMacOS() error {
	path, err := macOSLaunchAgentPath()
	if err != nil {
		return err
	}

	// Ignore errors, the agent may not be loaded
	//nolint:gosec // G204: path comes from macOSLaunchAgentPath(), not user input
	_ = exec.Command("launchctl", "unload", path).Run()

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
