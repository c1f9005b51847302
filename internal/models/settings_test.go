package models

import (
	"path/filepath"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.Unit != "mg/dL" {
		t.Errorf("Default unit = %s, want mg/dL", settings.Unit)
	}
	if settings.RefreshInterval != 60 {
		t.Errorf("Default refresh interval = %d, want 60", settings.RefreshInterval)
	}
	if settings.TargetLow != 70 {
		t.Errorf("Default target low = %d, want 70", settings.TargetLow)
	}
	if settings.TargetHigh != 180 {
		t.Errorf("Default target high = %d, want 180", settings.TargetHigh)
	}
	if settings.ProjectionHours != 3 {
		t.Errorf("Default projection hours = %d, want 3", settings.ProjectionHours)
	}
}

func TestSettings_GetGlucoseStatus(t *testing.T) {
	settings := DefaultSettings()

	tests := []struct {
		name     string
		mgdl     int
		expected string
	}{
		{"Urgent low", 50, "urgent_low"},
		{"Low", 60, "low"},
		{"Normal low boundary", 70, "low"},
		{"Normal", 120, "normal"},
		{"Normal high boundary", 180, "high"},
		{"High", 200, "high"},
		{"Urgent high", 260, "urgent_high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := settings.GetGlucoseStatus(tt.mgdl)
			if result != tt.expected {
				t.Errorf("GetGlucoseStatus(%d) = %s, want %s", tt.mgdl, result, tt.expected)
			}
		})
	}
}

func TestSettings_Clone(t *testing.T) {
	original := DefaultSettings()
	original.NightscoutURL = "https://test.example.com"
	original.ProfilePath = "/tmp/profile.yaml"

	clone := original.Clone()

	if clone.NightscoutURL != original.NightscoutURL {
		t.Error("Clone did not copy NightscoutURL")
	}
	if clone.ProfilePath != original.ProfilePath {
		t.Error("Clone did not copy ProfilePath")
	}

	clone.NightscoutURL = "https://modified.example.com"
	if original.NightscoutURL == clone.NightscoutURL {
		t.Error("Modifying clone affected original")
	}
}

func TestSettings_IsConfigured(t *testing.T) {
	settings := DefaultSettings()

	if settings.IsConfigured() {
		t.Error("Empty settings should not be configured")
	}

	settings.NightscoutURL = "https://test.example.com"
	if !settings.IsConfigured() {
		t.Error("Settings with URL should be configured")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	original := DefaultSettings()
	original.NightscoutURL = "https://ns.example.com"
	original.ProjectionHours = 5
	if err := original.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := &Settings{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.NightscoutURL != "https://ns.example.com" {
		t.Errorf("Load() NightscoutURL = %s, want https://ns.example.com", loaded.NightscoutURL)
	}
	if loaded.ProjectionHours != 5 {
		t.Errorf("Load() ProjectionHours = %d, want 5", loaded.ProjectionHours)
	}
}

func TestSettings_LoadMissingFileUsesDefaults(t *testing.T) {
	settings := &Settings{}
	if err := settings.Load(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.TargetHigh != 180 {
		t.Errorf("Load() TargetHigh = %d, want 180", settings.TargetHigh)
	}
}

func TestSettings_FormatGlucose(t *testing.T) {
	settings := DefaultSettings()
	if got := settings.FormatGlucose(180); got != 180 {
		t.Errorf("FormatGlucose(180) = %v, want 180", got)
	}
	settings.Unit = "mmol/L"
	if got := settings.FormatGlucose(180); got != 10.0 {
		t.Errorf("FormatGlucose(180) = %v, want 10", got)
	}
}

func TestSettings_ApplyServer(t *testing.T) {
	settings := DefaultSettings()
	settings.ApplyServer(ServerSettings{
		Units:      "mmol",
		Thresholds: Thresholds{BGHigh: 260, BGTargetTop: 160, BGTargetBottom: 80},
	})

	if settings.Unit != "mmol/L" {
		t.Errorf("ApplyServer() Unit = %s, want mmol/L", settings.Unit)
	}
	if settings.UrgentHigh != 260 || settings.TargetHigh != 160 || settings.TargetLow != 80 {
		t.Errorf("ApplyServer() thresholds = %d/%d/%d, want 260/160/80",
			settings.UrgentHigh, settings.TargetHigh, settings.TargetLow)
	}
	if settings.UrgentLow != 55 {
		t.Errorf("ApplyServer() UrgentLow = %d, want unchanged 55", settings.UrgentLow)
	}

	settings.ApplyServer(ServerSettings{Units: "unknown"})
	if settings.Unit != "mmol/L" {
		t.Errorf("ApplyServer() Unit = %s, want unchanged mmol/L", settings.Unit)
	}
}
