// Package models contains data structures used throughout the application
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MeasurementSystem selects the canonical base unit of a quantity
type MeasurementSystem string

const (
	Weight MeasurementSystem = "weight" // canonical unit: grams
	Volume MeasurementSystem = "volume" // canonical unit: milliliters
)

// ParseMeasurementSystem maps loose spellings onto the two systems.
// The empty string is returned for anything unrecognized.
func ParseMeasurementSystem(s string) MeasurementSystem {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weight", "mass", "w", "g", "grams":
		return Weight
	case "volume", "v", "ml":
		return Volume
	default:
		return ""
	}
}

// Quantity is an amount in a named unit
type Quantity struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Defined reports whether the quantity carries a usable amount
func (q Quantity) Defined() bool {
	return q.Amount > 0
}

// Portion is how much of a food was eaten, tagged with its measurement system
type Portion struct {
	Amount float64           `json:"amount"`
	Unit   string            `json:"unit"`
	System MeasurementSystem `json:"measurementSystem"`
}

// UnmarshalJSON validates the measurement system at the boundary
func (p *Portion) UnmarshalJSON(data []byte) error {
	type Alias Portion
	aux := &struct {
		*Alias
		System string `json:"measurementSystem"`
	}{Alias: (*Alias)(p)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.System != "" {
		p.System = ParseMeasurementSystem(aux.System)
		if p.System == "" {
			return fmt.Errorf("unknown measurement system %q", aux.System)
		}
	}
	return nil
}

// ServingSize is the reference serving of a food, expressed in both systems
type ServingSize struct {
	Volume Quantity `json:"volume" yaml:"volume"`
	Weight Quantity `json:"weight" yaml:"weight"`
}

// Macros are grams of carbohydrate, protein and fat
type Macros struct {
	Carbs   float64 `json:"carbs" yaml:"carbs"`
	Protein float64 `json:"protein" yaml:"protein"`
	Fat     float64 `json:"fat" yaml:"fat"`
}

// FoodSelection is one food chosen for a meal together with its portion
type FoodSelection struct {
	Name                string         `json:"name"`
	Portion             Portion        `json:"portion"`
	NutrientsPerServing Macros         `json:"nutrientsPerServing"`
	ServingSize         ServingSize    `json:"servingSize"`
	AbsorptionType      AbsorptionType `json:"absorptionType"`
}

// NutritionTotal is the aggregate nutrition of a meal
type NutritionTotal struct {
	Carbs          float64        `json:"carbs"`
	Protein        float64        `json:"protein"`
	Fat            float64        `json:"fat"`
	Calories       float64        `json:"calories"`
	AbsorptionType AbsorptionType `json:"absorptionType"`
}

// CarbEquivalent converts the total to carbohydrate-equivalent grams
func (n NutritionTotal) CarbEquivalent(p *PatientProfile) float64 {
	return n.Carbs + n.Protein*p.ProteinFactor + n.Fat*p.FatFactor
}

// Calories returns the energy of the macros using 4/4/9 kcal per gram
func Calories(carbs, protein, fat float64) float64 {
	return carbs*4 + protein*4 + fat*9
}

// MealEntry is a logged meal as consumed by the projection components
type MealEntry struct {
	ID        string         `json:"id"`
	At        Timestamp      `json:"timestamp"`
	MealType  MealType       `json:"mealType,omitempty"`
	Nutrition NutritionTotal `json:"nutrition"`
}
