// Package cmd implements the glucoplan command line interface
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/autostart"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start the monitor at login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register glucoplan monitor to run at login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := autostart.MonitorCommand(monitorArgs()...)
		if err != nil {
			return err
		}
		if err := autostart.Enable(c); err != nil {
			return fmt.Errorf("failed to enable autostart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "autostart enabled: %s\n", c.Line())
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("failed to disable autostart: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the monitor starts at login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := autostart.IsEnabled()
		if err != nil {
			return err
		}
		where, err := autostart.Location()
		if err != nil {
			return err
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", state, where)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autostartCmd)
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
}

// monitorArgs carries the explicit file flags into the login entry
func monitorArgs() []string {
	args := []string{"monitor"}
	for _, f := range []struct{ name, value string }{
		{"settings", settingsPath},
		{"profile", profilePath},
		{"catalog", catalogPath},
	} {
		if f.value == "" {
			continue
		}
		if abs, err := filepath.Abs(f.value); err == nil {
			f.value = abs
		}
		args = append(args, "--"+f.name, f.value)
	}
	return args
}
