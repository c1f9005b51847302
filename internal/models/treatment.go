// Package models contains data structures used throughout the application
package models

import "time"

// Treatment represents a treatment entry from Nightscout (insulin, carbs, etc.)
type Treatment struct {
	ID             string  `json:"_id"`
	EventType      string  `json:"eventType"`
	Date           int64   `json:"date"` // Unix timestamp in milliseconds
	CreatedAt      string  `json:"created_at"`
	Insulin        float64 `json:"insulin"` // Units of insulin
	InsulinType    string  `json:"insulinType"`
	Carbs          float64 `json:"carbs"`          // Grams of carbohydrates
	Protein        float64 `json:"protein"`        // Grams of protein
	Fat            float64 `json:"fat"`            // Grams of fat
	AbsorptionTime float64 `json:"absorptionTime"` // Expected carb absorption in minutes
	Duration       float64 `json:"duration"`       // Duration in minutes (exercise, temp basals)
	Glucose        float64 `json:"glucose"`        // Blood glucose value if recorded
	Units          string  `json:"units"`          // "mg/dl" or "mmol"
	Notes          string  `json:"notes"`
	EnteredBy      string  `json:"enteredBy"`
}

// Time returns the time of the treatment
func (t *Treatment) Time() time.Time {
	if t.Date > 0 {
		return time.UnixMilli(t.Date)
	}
	// Fallback to created_at, which clients write in several layouts
	return ParseTime(t.CreatedAt)
}

// HasInsulin returns true if this treatment includes insulin
func (t *Treatment) HasInsulin() bool {
	return t.Insulin > 0
}

// HasCarbs returns true if this treatment includes carbohydrates
func (t *Treatment) HasCarbs() bool {
	return t.Carbs > 0
}

// IsBolus returns true if this is a bolus treatment
func (t *Treatment) IsBolus() bool {
	bolusTypes := map[string]bool{
		EventBolus:           true,
		EventSnackBolus:      true,
		EventMealBolus:       true,
		EventCorrectionBolus: true,
		EventComboBolus:      true,
		EventBolusWizard:     true,
	}
	return bolusTypes[t.EventType] || (t.HasInsulin() && t.EventType != EventTempBasal)
}

// MealType infers the meal type of a carb entry from its event type and hour
func (t *Treatment) MealType() MealType {
	if t.EventType == EventSnackBolus {
		return MealSnack
	}
	switch hour := t.Time().Hour(); {
	case hour >= 4 && hour < 11:
		return MealBreakfast
	case hour >= 11 && hour < 16:
		return MealLunch
	case hour >= 16 && hour < 22:
		return MealDinner
	default:
		return MealSnack
	}
}

// AbsorptionType maps the entered absorption time onto the absorption vocabulary.
// Entries without an absorption time are treated as medium.
func (t *Treatment) AbsorptionType() AbsorptionType {
	switch minutes := t.AbsorptionTime; {
	case minutes <= 0:
		return AbsorptionMedium
	case minutes <= 90:
		return AbsorptionVeryFast
	case minutes <= 150:
		return AbsorptionFast
	case minutes <= 210:
		return AbsorptionMedium
	case minutes <= 300:
		return AbsorptionSlow
	default:
		return AbsorptionVerySlow
	}
}

// Nightscout event types the importer distinguishes
const (
	EventBolus           = "Bolus"
	EventSnackBolus      = "Snack Bolus"
	EventMealBolus       = "Meal Bolus"
	EventCorrectionBolus = "Correction Bolus"
	EventCarbCorrection  = "Carb Correction"
	EventComboBolus      = "Combo Bolus"
	EventBolusWizard     = "Bolus Wizard"
	EventTempBasal       = "Temp Basal"
)
