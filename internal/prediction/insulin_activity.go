// Package prediction projects meal and insulin effects into a glucose timeline
package prediction

import (
	"math"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

// CurveVariant selects the rising-phase shape of peaked insulin curves
type CurveVariant int

const (
	// RiseOnsetScaled ramps to peak/duration of full activity by onset, then rises linearly to the peak
	RiseOnsetScaled CurveVariant = iota
	// RiseLinear rises linearly from zero at the dose to full activity at the peak
	RiseLinear
)

// peaklessPlateau is the highest activity of a peakless insulin, in percent
const peaklessPlateau = 50.0

// ActivityPoint is one sample of a dose's activity
type ActivityPoint struct {
	Timestamp       int64   `json:"timestamp"` // Unix milliseconds
	HoursSinceDose  float64 `json:"hoursSinceDose"`
	ActivityPercent float64 `json:"activityPercent"` // 0..100
	ActiveUnits     float64 `json:"activeUnits"`
}

// ActivityPercentAt returns the activity of an insulin t hours after the dose, 0..100
func ActivityPercentAt(pk models.Pharmacokinetics, t float64, variant CurveVariant) float64 {
	d := pk.DurationHours
	if d <= 0 || t < 0 || t >= d {
		return 0
	}
	onset := math.Max(pk.OnsetHours, 0)

	if pk.Peakless() {
		if onset >= d {
			return peaklessPlateau * t / d
		}
		if t < onset {
			return peaklessPlateau * t / onset
		}
		return peaklessPlateau * (d - t) / (d - onset)
	}

	peak := math.Min(*pk.PeakHours, d)
	if peak <= 0 {
		return 100 * (d - t) / d
	}
	onset = math.Min(onset, peak)

	if t >= peak {
		return 100 * (d - t) / (d - peak)
	}

	if variant == RiseLinear || onset == 0 {
		return 100 * t / peak
	}

	base := peak / d * 100
	if t < onset {
		return t / onset * base
	}
	if peak == onset {
		return 100
	}
	return base + (100-base)*(t-onset)/(peak-onset)
}

// ProjectActivity samples a dose's activity every step from 0 to durationHours
// inclusive using the canonical curve. A non-positive durationHours projects
// the dose's own duration.
func ProjectActivity(dose models.InsulinDose, durationHours float64, step time.Duration) []ActivityPoint {
	return ProjectActivityVariant(dose, durationHours, step, RiseOnsetScaled)
}

// ProjectActivityVariant is ProjectActivity with an explicit curve variant
func ProjectActivityVariant(dose models.InsulinDose, durationHours float64, step time.Duration, variant CurveVariant) []ActivityPoint {
	if durationHours <= 0 {
		durationHours = dose.Pharmacokinetics.DurationHours
	}
	if durationHours <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	stepHours := step.Hours()
	n := int(math.Floor(durationHours/stepHours+1e-9)) + 1
	points := make([]ActivityPoint, 0, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(i) * step
		t := offset.Hours()
		pct := ActivityPercentAt(dose.Pharmacokinetics, t, variant)
		points = append(points, ActivityPoint{
			Timestamp:       dose.AdministeredAt.Add(offset).UnixMilli(),
			HoursSinceDose:  t,
			ActivityPercent: pct,
			ActiveUnits:     dose.Units * pct / 100,
		})
	}
	return points
}
