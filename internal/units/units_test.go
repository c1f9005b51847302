package units

import (
	"testing"

	"github.com/mrcode/glucoplan/internal/models"
)

func TestToCanonical(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		unit     string
		system   models.MeasurementSystem
		expected float64
	}{
		{"cup to ml", 2, "cup", models.Volume, 480},
		{"half cup", 1, "half_cup", models.Volume, 120},
		{"tablespoon alias", 2, "tbsp", models.Volume, 30},
		{"palm to grams", 1, "palm", models.Weight, 85},
		{"kilograms", 0.5, "kg", models.Weight, 500},
		{"volume unit under weight", 1, "bowl", models.Weight, 400},
		{"weight unit under volume", 1, "handful", models.Volume, 30},
		{"case insensitive", 1, "Cup", models.Volume, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToCanonical(tt.amount, tt.unit, tt.system)
			if got != tt.expected {
				t.Errorf("ToCanonical(%v, %q, %s) = %v, want %v", tt.amount, tt.unit, tt.system, got, tt.expected)
			}
		})
	}
}

func TestToCanonical_UnknownUnitIsIdentity(t *testing.T) {
	for _, amount := range []float64{0, 1, 2.5, 300} {
		for _, system := range []models.MeasurementSystem{models.Weight, models.Volume, ""} {
			if got := ToCanonical(amount, "smidgen", system); got != amount {
				t.Errorf("ToCanonical(%v, smidgen, %s) = %v, want %v", amount, system, got, amount)
			}
		}
	}
}

func TestConvert(t *testing.T) {
	got, ok := Convert(1, "cup", "tablespoon")
	if !ok || got != 16 {
		t.Errorf("Convert(1, cup, tablespoon) = %v, %v, want 16, true", got, ok)
	}
	if _, ok := Convert(1, "cup", "smidgen"); ok {
		t.Error("Convert() to unknown unit reported success")
	}
}

func TestSystemOf(t *testing.T) {
	if got := SystemOf("bowl"); got != models.Volume {
		t.Errorf("SystemOf(bowl) = %s, want volume", got)
	}
	if got := SystemOf("fist"); got != models.Weight {
		t.Errorf("SystemOf(fist) = %s, want weight", got)
	}
	if got := SystemOf("smidgen"); got != "" {
		t.Errorf("SystemOf(smidgen) = %s, want empty", got)
	}
}

func TestList(t *testing.T) {
	all := List("")
	if len(all) != len(volumeUnits)+len(weightUnits) {
		t.Fatalf("List() returned %d units, want %d", len(all), len(volumeUnits)+len(weightUnits))
	}
	weights := List(models.Weight)
	if weights[0].Name != "g" || weights[len(weights)-1].Name != "kg" {
		t.Errorf("List(weight) = %s..%s, want g..kg", weights[0].Name, weights[len(weights)-1].Name)
	}
}
