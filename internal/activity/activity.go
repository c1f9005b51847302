// Package activity computes the insulin-sensitivity adjustment of physical activity
package activity

import (
	"math"

	"github.com/mrcode/glucoplan/internal/models"
)

// SaturationHours is the duration after which an activity has its full effect
const SaturationHours = 2.0

// DurationWeight returns min(hours / 2, 1), clamped at zero
func DurationWeight(hours float64) float64 {
	if hours <= 0 || math.IsNaN(hours) {
		return 0
	}
	return math.Min(hours/SaturationHours, 1)
}

// ComputeActivityImpact sums coefficient * duration weight over the activities.
// The result is a fractional adjustment: -0.1 means 10% less insulin.
func ComputeActivityImpact(acts []models.Activity, p *models.PatientProfile) float64 {
	if p == nil {
		return 0
	}

	total := 0.0
	for _, a := range acts {
		total += p.ActivityCoefficient(a.Level) * DurationWeight(a.Hours())
	}
	return total
}
