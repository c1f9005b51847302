// Package models contains data structures used throughout the application
package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Settings contains the monitor settings
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// Connection settings
	NightscoutURL string `json:"nightscoutUrl"`
	APISecret     string `json:"apiSecret"` // Plain API secret (will be hashed)
	APIToken      string `json:"apiToken"`  // Token-based auth
	UseToken      bool   `json:"useToken"`  // Use token instead of secret

	// Display settings
	Unit            string `json:"unit"`            // "mg/dL" or "mmol/L"
	RefreshInterval int    `json:"refreshInterval"` // Seconds (30-600)

	// Projection settings
	ProfilePath     string `json:"profilePath"`     // Patient profile YAML, empty = defaults
	HistoryHours    int    `json:"historyHours"`    // Hours of readings and treatments fetched
	ProjectionHours int    `json:"projectionHours"` // Hours projected past now

	// Glucose thresholds (in mg/dL, converted for display)
	TargetLow  int `json:"targetLow"`
	TargetHigh int `json:"targetHigh"`
	UrgentLow  int `json:"urgentLow"`
	UrgentHigh int `json:"urgentHigh"`

	// Alert settings
	EnableHighAlert       bool `json:"enableHighAlert"`
	EnableLowAlert        bool `json:"enableLowAlert"`
	EnableUrgentHighAlert bool `json:"enableUrgentHighAlert"`
	EnableUrgentLowAlert  bool `json:"enableUrgentLowAlert"`
	EnableSoundAlerts     bool `json:"enableSoundAlerts"`
	RepeatAlertMinutes    int  `json:"repeatAlertMinutes"` // 0 = no repeat
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		Unit:            "mg/dL",
		RefreshInterval: 60, // 1 minute default

		HistoryHours:    6,
		ProjectionHours: 3,

		TargetLow:  70,
		TargetHigh: 180,
		UrgentLow:  55,
		UrgentHigh: 250,

		EnableHighAlert:       true,
		EnableLowAlert:        true,
		EnableUrgentHighAlert: true,
		EnableUrgentLowAlert:  true,
		EnableSoundAlerts:     true,
		RepeatAlertMinutes:    15,
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	appDir := filepath.Join(configDir, "glucoplan")
	if err := os.MkdirAll(appDir, 0750); err != nil {
		return "", err
	}

	return appDir, nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load loads settings from path, or from the default config path when path is empty
func (s *Settings) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // Config path is chosen by the user
	if err != nil {
		if os.IsNotExist(err) {
			// Use defaults if file doesn't exist
			s.copySettingsFields(DefaultSettings())
			return nil
		}
		return err
	}

	return json.Unmarshal(data, s)
}

// Save saves settings to path, or to the default config path when path is empty
func (s *Settings) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// ApplyServer adopts the units and thresholds configured on the Nightscout
// server. Zero thresholds are left unchanged.
func (s *Settings) ApplyServer(server ServerSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToLower(server.Units) {
	case "mmol", "mmol/l":
		s.Unit = "mmol/L"
	case "mg/dl":
		s.Unit = "mg/dL"
	}

	t := server.Thresholds
	for _, f := range []struct {
		dst *int
		src int
	}{
		{&s.UrgentLow, t.BGLow},
		{&s.TargetLow, t.BGTargetBottom},
		{&s.TargetHigh, t.BGTargetTop},
		{&s.UrgentHigh, t.BGHigh},
	} {
		if f.src > 0 {
			*f.dst = f.src
		}
	}
}

// copySettingsFields copies all fields from other to s, excluding the mutex
// The caller must hold the necessary locks on s and other (if other is shared)
func (s *Settings) copySettingsFields(other *Settings) {
	s.NightscoutURL = other.NightscoutURL
	s.APISecret = other.APISecret
	s.APIToken = other.APIToken
	s.UseToken = other.UseToken
	s.Unit = other.Unit
	s.RefreshInterval = other.RefreshInterval
	s.ProfilePath = other.ProfilePath
	s.HistoryHours = other.HistoryHours
	s.ProjectionHours = other.ProjectionHours
	s.TargetLow = other.TargetLow
	s.TargetHigh = other.TargetHigh
	s.UrgentLow = other.UrgentLow
	s.UrgentHigh = other.UrgentHigh
	s.EnableHighAlert = other.EnableHighAlert
	s.EnableLowAlert = other.EnableLowAlert
	s.EnableUrgentHighAlert = other.EnableUrgentHighAlert
	s.EnableUrgentLowAlert = other.EnableUrgentLowAlert
	s.EnableSoundAlerts = other.EnableSoundAlerts
	s.RepeatAlertMinutes = other.RepeatAlertMinutes
}

// IsConfigured returns true if minimum required settings are set
func (s *Settings) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.NightscoutURL != ""
}

// GetGlucoseStatus returns the status string for a glucose value
func (s *Settings) GetGlucoseStatus(mgdl int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case mgdl <= s.UrgentLow:
		return "urgent_low"
	case mgdl <= s.TargetLow:
		return "low"
	case mgdl >= s.UrgentHigh:
		return "urgent_high"
	case mgdl >= s.TargetHigh:
		return "high"
	default:
		return "normal"
	}
}

// FormatGlucose renders a mg/dL value in the configured unit
func (s *Settings) FormatGlucose(mgdl float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if IsMmol(s.Unit) {
		return ToMmol(mgdl)
	}
	return mgdl
}
