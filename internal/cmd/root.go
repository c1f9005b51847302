// Package cmd implements the glucoplan command line interface
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nutrition"
	"github.com/mrcode/glucoplan/internal/profile"
)

var (
	logLevel     string
	profilePath  string
	settingsPath string
	catalogPath  string
)

var rootCmd = &cobra.Command{
	Use:   "glucoplan",
	Short: "Insulin dose and glucose projection toolkit",
	Long: `glucoplan estimates meal insulin doses from food, activity and health factors,
and projects how meals and insulin move blood glucose over time.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
		if logLevel != "" {
			logging.SetLevel(logLevel)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Patient profile YAML (default: settings profilePath, else built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings JSON file (default: user config directory)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Additional food catalog YAML")
}

// loadSettings reads the settings file, falling back to defaults when it does not exist
func loadSettings() (*models.Settings, error) {
	settings := models.DefaultSettings()
	if err := settings.Load(settingsPath); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// resolveProfilePath prefers the flag, then the settings file
func resolveProfilePath() string {
	if profilePath != "" {
		return profilePath
	}
	settings, err := loadSettings()
	if err != nil {
		logging.Logger(logging.SourceCLI).Warn("Ignoring settings", "error", err)
		return ""
	}
	return settings.ProfilePath
}

func loadProfileStore() (*profile.Store, error) {
	store, err := profile.NewStore(resolveProfilePath())
	if err != nil {
		return nil, err
	}
	if store.Path() == "" {
		logging.Logger(logging.SourceCLI).Debug("Using default patient profile")
	}
	return store, nil
}

func loadCatalog() (*nutrition.Catalog, error) {
	catalog := nutrition.DefaultCatalog()
	if catalogPath != "" {
		if err := catalog.LoadFile(catalogPath); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSONFile decodes a JSON file, or stdin when path is "-"
func readJSONFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // Input path is chosen by the user
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return nil
}
