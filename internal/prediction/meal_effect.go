// Package prediction projects meal and insulin effects into a glucose timeline
package prediction

import (
	"math"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

// DefaultMealDurationHours is how long a meal affects glucose in the timeline
const DefaultMealDurationHours = 6.0

// DefaultStep is the sampling step of single-curve projections
const DefaultStep = 15 * time.Minute

// EffectPoint is one sample of a meal's glucose-equivalent impact
type EffectPoint struct {
	Timestamp      int64   `json:"timestamp"` // Unix milliseconds
	HoursSinceMeal float64 `json:"hoursSinceMeal"`
	ImpactValue    float64 `json:"impactValue"` // carb-equivalent grams
}

// PeakHour returns the hour at which a meal of the absorption type peaks
func PeakHour(t models.AbsorptionType) float64 {
	switch t {
	case models.AbsorptionFast, models.AbsorptionVeryFast:
		return 1.0
	case models.AbsorptionSlow, models.AbsorptionVerySlow:
		return 2.0
	default:
		return 1.5
	}
}

// MealImpactAt returns the impact of a meal t hours after it was eaten. The
// impact rises to its peak, then decays exponentially; it is zero outside
// [0, durationHours] and never negative.
func MealImpactAt(n models.NutritionTotal, p *models.PatientProfile, t, durationHours float64) float64 {
	if t < 0 || t > durationHours || durationHours <= 0 || p == nil {
		return 0
	}

	total := n.CarbEquivalent(p)
	absorption := n.AbsorptionType.OrMedium()
	peak := PeakHour(absorption)

	var impact float64
	if t <= peak {
		ratio := t / peak
		impact = total * math.Pow(ratio, 1.2) * math.Exp(1-ratio)
	} else {
		impact = total * 0.95 * math.Exp(-(t-peak)*0.8/(durationHours-peak))
	}

	impact *= p.AbsorptionModifier(absorption)
	if impact < 0 || math.IsNaN(impact) {
		return 0
	}
	return impact
}

// ProjectEffect samples a meal's impact every step from 0 to durationHours inclusive
func ProjectEffect(meal models.MealEntry, p *models.PatientProfile, durationHours float64, step time.Duration) []EffectPoint {
	if durationHours <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	stepHours := step.Hours()
	n := int(math.Floor(durationHours/stepHours+1e-9)) + 1
	points := make([]EffectPoint, 0, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(i) * step
		t := offset.Hours()
		points = append(points, EffectPoint{
			Timestamp:      meal.At.Add(offset).UnixMilli(),
			HoursSinceMeal: t,
			ImpactValue:    MealImpactAt(meal.Nutrition, p, t, durationHours),
		})
	}
	return points
}
