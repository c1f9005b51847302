// Package cmd implements the glucoplan command line interface
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/health"
	"github.com/mrcode/glucoplan/internal/profile"
)

var profileInitForce bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the patient profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective profile as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadProfileStore()
		if err != nil {
			return err
		}
		data, err := profile.Marshal(store.Current())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := profile.Load(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	},
}

var profileInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write the default profile to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !profileInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		data, err := profile.Marshal(profile.Defaults())
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var profileHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the current health multiplier and its contributions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadProfileStore()
		if err != nil {
			return err
		}
		now := time.Now()
		p := store.Current()
		return writeJSON(cmd.OutOrStdout(), struct {
			Multiplier    float64               `json:"multiplier"`
			Contributions []health.Contribution `json:"contributions"`
		}{
			Multiplier:    health.ComputeHealthMultiplier(p, now),
			Contributions: health.Breakdown(p, now),
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileValidateCmd, profileInitCmd, profileHealthCmd)

	profileInitCmd.Flags().BoolVar(&profileInitForce, "force", false, "Overwrite an existing file")
}
