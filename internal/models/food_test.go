package models

import (
	"encoding/json"
	"testing"
)

func TestPortion_UnmarshalJSON(t *testing.T) {
	var p Portion
	if err := json.Unmarshal([]byte(`{"amount": 1, "unit": "cup", "measurementSystem": "Volume"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.System != Volume || p.Unit != "cup" || p.Amount != 1 {
		t.Errorf("Unmarshal() = %+v, want 1 cup volume", p)
	}

	if err := json.Unmarshal([]byte(`{"amount": 1, "unit": "cup", "measurementSystem": "teleport"}`), &p); err == nil {
		t.Error("Unmarshal() accepted an unknown measurement system")
	}
}

func TestCalories(t *testing.T) {
	if got := Calories(10, 5, 2); got != 78 {
		t.Errorf("Calories(10, 5, 2) = %v, want 78", got)
	}
}

func TestNutritionTotal_CarbEquivalent(t *testing.T) {
	p := &PatientProfile{ProteinFactor: 0.5, FatFactor: 0.2}
	n := NutritionTotal{Carbs: 60, Protein: 20, Fat: 10}
	if got := n.CarbEquivalent(p); got != 72 {
		t.Errorf("CarbEquivalent() = %v, want 72", got)
	}
}

func TestInsulinDose_WithDefaults(t *testing.T) {
	fallback := Pharmacokinetics{OnsetHours: 0.2, PeakHours: Float(1), DurationHours: 4}

	d := InsulinDose{Medication: "long_acting", Units: 10}.WithDefaults(fallback)
	if !d.Pharmacokinetics.Peakless() || d.Pharmacokinetics.DurationHours != 24 {
		t.Errorf("WithDefaults(long_acting) = %+v, want peakless 24h preset", d.Pharmacokinetics)
	}

	d = InsulinDose{Medication: "custom", Units: 2}.WithDefaults(fallback)
	if d.Pharmacokinetics.DurationHours != 4 {
		t.Errorf("WithDefaults(custom) duration = %v, want 4", d.Pharmacokinetics.DurationHours)
	}

	explicit := Pharmacokinetics{OnsetHours: 0.5, PeakHours: Float(2), DurationHours: 5}
	d = InsulinDose{Medication: "rapid_acting", Pharmacokinetics: explicit}.WithDefaults(fallback)
	if d.Pharmacokinetics.DurationHours != 5 {
		t.Errorf("WithDefaults() replaced an explicit profile: %+v", d.Pharmacokinetics)
	}
}

func TestPharmacokinetics_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pk      Pharmacokinetics
		wantErr bool
	}{
		{"rapid", InsulinPresets["rapid_acting"], false},
		{"peakless", InsulinPresets["long_acting"], false},
		{"zero duration", Pharmacokinetics{}, true},
		{"peak after duration", Pharmacokinetics{OnsetHours: 0.5, PeakHours: Float(6), DurationHours: 5}, true},
		{"negative onset", Pharmacokinetics{OnsetHours: -1, DurationHours: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.pk.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
