// Package cmd implements the glucoplan command line interface
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nightscout"
)

var (
	settingsURL    string
	settingsSecret string
	settingsToken  string
	settingsUnit   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the monitor settings file",
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write settings with the given connection details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("url") {
			settings.NightscoutURL = settingsURL
		}
		if cmd.Flags().Changed("secret") {
			settings.APISecret = settingsSecret
			settings.UseToken = false
		}
		if cmd.Flags().Changed("token") {
			settings.APIToken = settingsToken
			settings.UseToken = true
		}
		if cmd.Flags().Changed("unit") {
			switch {
			case models.IsMmol(settingsUnit):
				settings.Unit = "mmol/L"
			case strings.EqualFold(settingsUnit, "mg/dL"):
				settings.Unit = "mg/dL"
			default:
				return fmt.Errorf("unknown glucose unit %q", settingsUnit)
			}
		}
		if err := settings.Save(settingsPath); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "settings saved")
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		s := settings.Clone()
		if s.APISecret != "" {
			s.APISecret = "***"
		}
		if s.APIToken != "" {
			s.APIToken = "***"
		}
		return writeJSON(cmd.OutOrStdout(), s)
	},
}

var settingsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Adopt units and thresholds from the Nightscout server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if !settings.IsConfigured() {
			return errors.New("nightscout URL is not configured in settings")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		status, err := nightscout.NewClientFromSettings(settings).GetStatus(ctx)
		if err != nil {
			return fmt.Errorf("cannot reach nightscout: %w", err)
		}
		settings.ApplyServer(status.Settings)
		if err := settings.Save(settingsPath); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		s := settings.Clone()
		fmt.Fprintf(cmd.OutOrStdout(), "synced from %s %s: %s, low %d/%d, high %d/%d\n",
			status.Name, status.Version, s.Unit, s.UrgentLow, s.TargetLow, s.TargetHigh, s.UrgentHigh)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsInitCmd, settingsShowCmd, settingsSyncCmd)

	settingsInitCmd.Flags().StringVar(&settingsURL, "url", "", "Nightscout URL")
	settingsInitCmd.Flags().StringVar(&settingsSecret, "secret", "", "API secret")
	settingsInitCmd.Flags().StringVar(&settingsToken, "token", "", "Access token (used instead of the secret)")
	settingsInitCmd.Flags().StringVar(&settingsUnit, "unit", "mg/dL", "Display unit (mg/dL, mmol/L)")
}
