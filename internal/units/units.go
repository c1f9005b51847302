// Package units converts food portions to canonical grams or milliliters
package units

import (
	"sort"
	"strings"

	"github.com/mrcode/glucoplan/internal/models"
)

// Unit is a household or metric measurement with its size in the canonical base unit
type Unit struct {
	Name        string                   `json:"name"`
	DisplayName string                   `json:"displayName"`
	System      models.MeasurementSystem `json:"system"`
	Base        float64                  `json:"base"` // ml for volume, grams for weight
}

var volumeUnits = map[string]Unit{
	"cup":           {"cup", "Cup", models.Volume, 240},
	"half_cup":      {"half_cup", "½ Cup", models.Volume, 120},
	"quarter_cup":   {"quarter_cup", "¼ Cup", models.Volume, 60},
	"tablespoon":    {"tablespoon", "Tablespoon", models.Volume, 15},
	"teaspoon":      {"teaspoon", "Teaspoon", models.Volume, 5},
	"bowl":          {"bowl", "Medium Bowl", models.Volume, 400},
	"v_plate":       {"v_plate", "Full Plate (Volume)", models.Volume, 350},
	"v_small_plate": {"v_small_plate", "Small Plate (Volume)", models.Volume, 175},
	"ml":            {"ml", "Milliliter", models.Volume, 1},
}

var weightUnits = map[string]Unit{
	"palm":          {"palm", "Palm-sized", models.Weight, 85},
	"handful":       {"handful", "Handful", models.Weight, 30},
	"fist":          {"fist", "Fist-sized", models.Weight, 150},
	"w_plate":       {"w_plate", "Full Plate (Weight)", models.Weight, 300},
	"w_small_plate": {"w_small_plate", "Small Plate (Weight)", models.Weight, 150},
	"g":             {"g", "Grams", models.Weight, 1},
	"kg":            {"kg", "Kilograms", models.Weight, 1000},
}

// aliases maps common spellings onto table keys
var aliases = map[string]string{
	"cups":        "cup",
	"tbsp":        "tablespoon",
	"tsp":         "teaspoon",
	"milliliter":  "ml",
	"milliliters": "ml",
	"gram":        "g",
	"grams":       "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"plate":       "w_plate",
	"small_plate": "w_small_plate",
}

func normalize(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := aliases[u]; ok {
		return alias
	}
	return u
}

// Lookup returns the unit definition for a name in either system
func Lookup(unit string) (Unit, bool) {
	u := normalize(unit)
	if def, ok := volumeUnits[u]; ok {
		return def, true
	}
	def, ok := weightUnits[u]
	return def, ok
}

// SystemOf returns the measurement system a unit belongs to, or "" when unknown
func SystemOf(unit string) models.MeasurementSystem {
	if def, ok := Lookup(unit); ok {
		return def.System
	}
	return ""
}

// ToCanonical converts an amount to grams (weight) or milliliters (volume).
// Units from the other system convert at a density of 1 g/ml. An unknown
// unit returns the amount unchanged.
func ToCanonical(amount float64, unit string, system models.MeasurementSystem) float64 {
	u := normalize(unit)

	primary, secondary := weightUnits, volumeUnits
	if system == models.Volume {
		primary, secondary = volumeUnits, weightUnits
	}

	if def, ok := primary[u]; ok {
		return amount * def.Base
	}
	if def, ok := secondary[u]; ok {
		return amount * def.Base
	}
	return amount
}

// Convert converts an amount between two known units. The result is false
// when either unit is unknown.
func Convert(amount float64, from, to string) (float64, bool) {
	src, ok := Lookup(from)
	if !ok {
		return 0, false
	}
	dst, ok := Lookup(to)
	if !ok || dst.Base == 0 {
		return 0, false
	}
	return amount * src.Base / dst.Base, true
}

// List returns the units of a system ordered by size, or all units when system is empty
func List(system models.MeasurementSystem) []Unit {
	var out []Unit
	if system != models.Weight {
		for _, u := range volumeUnits {
			out = append(out, u)
		}
	}
	if system != models.Volume {
		for _, u := range weightUnits {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].System != out[j].System {
			return out[i].System > out[j].System
		}
		if out[i].Base != out[j].Base {
			return out[i].Base < out[j].Base
		}
		return out[i].Name < out[j].Name
	})
	return out
}
