// Package models contains data structures used throughout the application
package models

import "time"

// AbsorptionType is the categorical speed of carbohydrate absorption
type AbsorptionType string

const (
	AbsorptionVerySlow AbsorptionType = "very_slow"
	AbsorptionSlow     AbsorptionType = "slow"
	AbsorptionMedium   AbsorptionType = "medium"
	AbsorptionFast     AbsorptionType = "fast"
	AbsorptionVeryFast AbsorptionType = "very_fast"
)

// AbsorptionTypes lists the absorption vocabulary from slowest to fastest
var AbsorptionTypes = []AbsorptionType{
	AbsorptionVerySlow,
	AbsorptionSlow,
	AbsorptionMedium,
	AbsorptionFast,
	AbsorptionVeryFast,
}

// Valid reports whether the absorption type is part of the fixed vocabulary
func (a AbsorptionType) Valid() bool {
	for _, known := range AbsorptionTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Rank orders absorption types by speed (0 = very slow). Unknown types rank as medium.
func (a AbsorptionType) Rank() int {
	for i, known := range AbsorptionTypes {
		if a == known {
			return i
		}
	}
	return 2
}

// OrMedium returns the type itself, or medium when it is empty or unknown
func (a AbsorptionType) OrMedium() AbsorptionType {
	if a.Valid() {
		return a
	}
	return AbsorptionMedium
}

// MealType identifies the meal a calculation is made for
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// TimeOfDayFactor applies a factor to every hour in [StartHour, EndHour).
// A range whose start is after its end wraps past midnight (22 -> 6).
type TimeOfDayFactor struct {
	Name      string  `json:"name" yaml:"name"`
	StartHour int     `json:"startHour" yaml:"start_hour"`
	EndHour   int     `json:"endHour" yaml:"end_hour"`
	Factor    float64 `json:"factor" yaml:"factor"`
}

// Contains reports whether the hour falls inside the bucket
func (f TimeOfDayFactor) Contains(hour int) bool {
	if f.StartHour <= f.EndHour {
		return hour >= f.StartHour && hour < f.EndHour
	}
	return hour >= f.StartHour || hour < f.EndHour
}

// ConditionFactor is the fixed insulin factor of a medical condition
type ConditionFactor struct {
	Factor      float64 `json:"factor" yaml:"factor"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// MedicationFactor describes how a medication changes insulin need.
// Duration-based medications follow an onset/peak/taper profile after each scheduled dose.
type MedicationFactor struct {
	Factor        float64  `json:"factor" yaml:"factor"`
	DurationBased bool     `json:"durationBased" yaml:"duration_based"`
	OnsetHours    *float64 `json:"onsetHours,omitempty" yaml:"onset_hours,omitempty"`
	PeakHours     *float64 `json:"peakHours,omitempty" yaml:"peak_hours,omitempty"`
	DurationHours *float64 `json:"durationHours,omitempty" yaml:"duration_hours,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Schedule is the daily dosing plan of a medication
type Schedule struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	DailyTimes []string  `json:"dailyTimes"` // Wall-clock "HH:MM" entries
}

// Active reports whether now lies within [StartDate, EndDate].
// A zero bound is treated as open.
func (s *Schedule) Active(now time.Time) bool {
	if !s.StartDate.IsZero() && now.Before(s.StartDate) {
		return false
	}
	if !s.EndDate.IsZero() && now.After(s.EndDate) {
		return false
	}
	return true
}

// PatientProfile holds the per-patient constants every calculation consumes.
// A profile is treated as an immutable snapshot: callers that need to change
// it must Clone first.
type PatientProfile struct {
	PatientID string `json:"patientId,omitempty"`

	InsulinToCarbRatio float64 `json:"insulinToCarbRatio"` // grams of carbs per unit
	CorrectionFactor   float64 `json:"correctionFactor"`   // mg/dL lowered per unit
	TargetGlucose      float64 `json:"targetGlucose"`      // mg/dL
	ProteinFactor      float64 `json:"proteinFactor"`      // carb-equivalent grams per gram of protein
	FatFactor          float64 `json:"fatFactor"`          // carb-equivalent grams per gram of fat

	AbsorptionModifiers  map[AbsorptionType]float64 `json:"absorptionModifiers"`
	ActivityCoefficients map[ActivityLevel]float64  `json:"activityCoefficients"`
	MealTimingFactors    map[MealType]float64       `json:"mealTimingFactors"`
	TimeOfDayFactors     []TimeOfDayFactor          `json:"timeOfDayFactors"`

	DiseaseFactors   map[string]ConditionFactor `json:"diseaseFactors"`
	ActiveConditions []string                   `json:"activeConditions"`

	MedicationFactors   map[string]MedicationFactor `json:"medicationFactors"`
	ActiveMedications   []string                    `json:"activeMedications"`
	MedicationSchedules map[string]Schedule         `json:"medicationSchedules"`

	// Pharmacokinetics applied to imported doses that carry none
	DefaultInsulin Pharmacokinetics `json:"defaultInsulin"`
}

// AbsorptionModifier returns the modifier for the type, or 1.0 when unknown
func (p *PatientProfile) AbsorptionModifier(t AbsorptionType) float64 {
	if v, ok := p.AbsorptionModifiers[t]; ok {
		return v
	}
	return 1.0
}

// ActivityCoefficient returns the coefficient for the level, or 0 when unknown
func (p *PatientProfile) ActivityCoefficient(level ActivityLevel) float64 {
	return p.ActivityCoefficients[level]
}

// MealTimingFactor returns the factor for the meal type, or 1.0 when unknown
func (p *PatientProfile) MealTimingFactor(meal MealType) float64 {
	if v, ok := p.MealTimingFactors[meal]; ok {
		return v
	}
	return 1.0
}

// TimeOfDayFactor returns the factor of the first bucket containing the hour of t, or 1.0
func (p *PatientProfile) TimeOfDayFactor(t time.Time) float64 {
	hour := t.Hour()
	for _, bucket := range p.TimeOfDayFactors {
		if bucket.Contains(hour) {
			return bucket.Factor
		}
	}
	return 1.0
}

// CarbSensitivity returns the mg/dL rise caused by one gram of carbohydrate
func (p *PatientProfile) CarbSensitivity() float64 {
	if p.InsulinToCarbRatio <= 0 {
		return 0
	}
	return p.CorrectionFactor / p.InsulinToCarbRatio
}

// Clone returns a deep copy of the profile
func (p *PatientProfile) Clone() *PatientProfile {
	c := *p

	c.AbsorptionModifiers = cloneMap(p.AbsorptionModifiers)
	c.ActivityCoefficients = cloneMap(p.ActivityCoefficients)
	c.MealTimingFactors = cloneMap(p.MealTimingFactors)
	c.DiseaseFactors = cloneMap(p.DiseaseFactors)
	c.MedicationFactors = make(map[string]MedicationFactor, len(p.MedicationFactors))
	for k, v := range p.MedicationFactors {
		v.OnsetHours = cloneFloat(v.OnsetHours)
		v.PeakHours = cloneFloat(v.PeakHours)
		v.DurationHours = cloneFloat(v.DurationHours)
		c.MedicationFactors[k] = v
	}
	c.MedicationSchedules = make(map[string]Schedule, len(p.MedicationSchedules))
	for k, v := range p.MedicationSchedules {
		v.DailyTimes = append([]string(nil), v.DailyTimes...)
		c.MedicationSchedules[k] = v
	}
	c.TimeOfDayFactors = append([]TimeOfDayFactor(nil), p.TimeOfDayFactors...)
	c.ActiveConditions = append([]string(nil), p.ActiveConditions...)
	c.ActiveMedications = append([]string(nil), p.ActiveMedications...)
	c.DefaultInsulin.PeakHours = cloneFloat(p.DefaultInsulin.PeakHours)

	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v, for optional pharmacokinetic fields
func Float(v float64) *float64 {
	return &v
}
