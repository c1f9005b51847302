// Package dosing calculates a suggested insulin dose with an auditable breakdown
package dosing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mrcode/glucoplan/internal/activity"
	"github.com/mrcode/glucoplan/internal/health"
	"github.com/mrcode/glucoplan/internal/models"
)

var (
	// ErrMissingProfile is returned when no patient profile is supplied
	ErrMissingProfile = errors.New("patient profile is required for dose calculation")
	// ErrInvalidRatio is returned when the insulin-to-carb ratio is not positive
	ErrInvalidRatio = errors.New("insulin-to-carb ratio must be positive")
)

// Input is everything a dose calculation consumes
type Input struct {
	Nutrition           models.NutritionTotal  `json:"nutrition"`
	CurrentBloodGlucose *float64               `json:"currentBloodGlucose,omitempty"` // mg/dL
	Activities          []models.Activity      `json:"activities,omitempty"`
	Profile             *models.PatientProfile `json:"-"`
	MealType            models.MealType        `json:"mealType,omitempty"`
	AbsorptionOverride  models.AbsorptionType  `json:"absorptionTypeOverride,omitempty"`
	Now                 time.Time              `json:"-"` // zero disables the time-of-day factor

	// FloorCorrection drops negative corrections before summation
	FloorCorrection bool `json:"floorCorrection,omitempty"`
}

// Breakdown holds every intermediate term, each rounded to two decimals
type Breakdown struct {
	CarbInsulin         float64 `json:"carbInsulin"`
	ProteinContribution float64 `json:"proteinContribution"`
	FatContribution     float64 `json:"fatContribution"`
	AbsorptionFactor    float64 `json:"absorptionFactor"`
	MealTimingFactor    float64 `json:"mealTimingFactor"`
	TimeOfDayFactor     float64 `json:"timeOfDayFactor"`
	HealthMultiplier    float64 `json:"healthMultiplier"`
	BaseInsulin         float64 `json:"baseInsulin"`
	ActivityImpact      float64 `json:"activityImpact"`
	AdjustedInsulin     float64 `json:"adjustedInsulin"`
	CorrectionInsulin   float64 `json:"correctionInsulin"`
}

// Timing is the suggested injection time relative to the meal
type Timing struct {
	MinutesBeforeMeal int    `json:"minutesBeforeMeal"`
	Description       string `json:"description"`
}

// Result is a suggested dose in units, rounded to 0.1 and never negative
type Result struct {
	Total          float64               `json:"total"`
	AbsorptionType models.AbsorptionType `json:"absorptionType"`
	Breakdown      Breakdown             `json:"breakdown"`
	Timing         Timing                `json:"timing"`
}

var timingGuidelines = map[models.AbsorptionType]Timing{
	models.AbsorptionVerySlow: {0, "Take insulin at the start of meal"},
	models.AbsorptionSlow:     {5, "Take insulin 5 minutes before meal"},
	models.AbsorptionMedium:   {10, "Take insulin 10 minutes before meal"},
	models.AbsorptionFast:     {15, "Take insulin 15 minutes before meal"},
	models.AbsorptionVeryFast: {20, "Take insulin 20 minutes before meal"},
}

// TimingFor returns the injection timing guideline for an absorption type
func TimingFor(t models.AbsorptionType) Timing {
	return timingGuidelines[t.OrMedium()]
}

// CalculateDose combines nutrition, correction, health, activity and timing
// factors into a suggested dose. It fails when the profile is missing or its
// insulin-to-carb ratio is unusable; every other gap resolves to a neutral factor.
func CalculateDose(in Input) (*Result, error) {
	p := in.Profile
	if p == nil {
		return nil, ErrMissingProfile
	}
	if p.InsulinToCarbRatio <= 0 || math.IsNaN(p.InsulinToCarbRatio) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, p.InsulinToCarbRatio)
	}
	if in.CurrentBloodGlucose != nil {
		if err := models.ValidateGlucose(*in.CurrentBloodGlucose); err != nil {
			return nil, fmt.Errorf("invalid current blood glucose: %w", err)
		}
	}

	absorption := in.Nutrition.AbsorptionType
	if in.AbsorptionOverride != "" {
		absorption = in.AbsorptionOverride
	}
	absorption = absorption.OrMedium()

	ratio := p.InsulinToCarbRatio
	carbInsulin := nonNegative(in.Nutrition.Carbs) / ratio
	proteinContribution := nonNegative(in.Nutrition.Protein) * p.ProteinFactor / ratio
	fatContribution := nonNegative(in.Nutrition.Fat) * p.FatFactor / ratio

	absorptionFactor := p.AbsorptionModifier(absorption)
	mealTimingFactor := p.MealTimingFactor(in.MealType)
	timeOfDayFactor := 1.0
	if !in.Now.IsZero() {
		timeOfDayFactor = p.TimeOfDayFactor(in.Now)
	}
	healthMultiplier := health.ComputeHealthMultiplier(p, in.Now)

	baseInsulin := (carbInsulin + proteinContribution + fatContribution) *
		absorptionFactor * mealTimingFactor * timeOfDayFactor * healthMultiplier

	activityImpact := activity.ComputeActivityImpact(in.Activities, p)
	adjustedInsulin := baseInsulin * (1 + activityImpact)

	correctionInsulin := 0.0
	if in.CurrentBloodGlucose != nil && p.TargetGlucose > 0 && p.CorrectionFactor > 0 {
		correctionInsulin = (*in.CurrentBloodGlucose - p.TargetGlucose) / p.CorrectionFactor * healthMultiplier
		if in.FloorCorrection && correctionInsulin < 0 {
			correctionInsulin = 0
		}
	}

	total := adjustedInsulin + correctionInsulin
	if total < 0 || math.IsNaN(total) {
		total = 0
	}

	return &Result{
		Total:          round1(total),
		AbsorptionType: absorption,
		Breakdown: Breakdown{
			CarbInsulin:         round2(carbInsulin),
			ProteinContribution: round2(proteinContribution),
			FatContribution:     round2(fatContribution),
			AbsorptionFactor:    round2(absorptionFactor),
			MealTimingFactor:    round2(mealTimingFactor),
			TimeOfDayFactor:     round2(timeOfDayFactor),
			HealthMultiplier:    round2(healthMultiplier),
			BaseInsulin:         round2(baseInsulin),
			ActivityImpact:      round2(activityImpact),
			AdjustedInsulin:     round2(adjustedInsulin),
			CorrectionInsulin:   round2(correctionInsulin),
		},
		Timing: TimingFor(absorption),
	}, nil
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
