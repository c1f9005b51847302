// Package models contains data structures used throughout the application
package models

// TimelinePoint is one row of the composited projection. Points are generated
// at a fixed interval, ordered by timestamp and never mutated afterwards.
type TimelinePoint struct {
	Timestamp          int64    `json:"timestamp"` // Unix milliseconds
	BloodGlucoseActual *float64 `json:"bloodGlucoseActual,omitempty"`
	BaselineEstimated  bool     `json:"baselineEstimated,omitempty"`
	BloodGlucose       float64  `json:"bloodGlucoseBaseline"`
	MealEffect         float64  `json:"mealEffectValue"`    // carb-equivalent grams
	MealImpact         float64  `json:"mealImpactMgdl"`     // mg/dL
	InsulinActiveUnits float64  `json:"insulinActiveUnits"` // units
	InsulinImpact      float64  `json:"insulinBgImpact"`    // mg/dL, <= 0
	NetEffect          float64  `json:"netEffectBg"`        // mg/dL
	ProjectedBG        float64  `json:"projectedBg"`        // mg/dL, >= 70
	DisplayBG          float64  `json:"displayBg"`          // mg/dL
	IsHistorical       bool     `json:"isHistorical"`
}

// History is the logged input of a projection over some window
type History struct {
	Readings []BloodGlucoseReading `json:"readings"`
	Doses    []InsulinDose         `json:"doses"`
	Meals    []MealEntry           `json:"meals"`
}
