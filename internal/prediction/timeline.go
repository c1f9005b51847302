// Package prediction projects meal and insulin effects into a glucose timeline
package prediction

import (
	"math"
	"sort"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

// DefaultMaxPoints bounds the length of a composited timeline
const DefaultMaxPoints = 2000

// MinProjectedBG is the floor applied to projected glucose, mg/dL
const MinProjectedBG = 70.0

// UnflooredBG is the projected glucose of a point before the display floor,
// never below zero. Threshold checks use it so lows under the floor stay visible.
func UnflooredBG(pt models.TimelinePoint) float64 {
	if pt.ProjectedBG > MinProjectedBG {
		return pt.ProjectedBG
	}
	return math.Min(pt.ProjectedBG, math.Max(0, pt.BloodGlucose+pt.NetEffect))
}

// Options controls timeline composition
type Options struct {
	// Now splits historical from projected ticks and replaces unset timestamps
	Now time.Time
	// FutureHours extends the timeline past max(last input, Now) when positive
	FutureHours float64
	// MealDurationHours is how long each meal contributes, default 6
	MealDurationHours float64
	// MaxPoints caps the number of ticks, default 2000
	MaxPoints int
	// Variant selects the insulin curve shape
	Variant CurveVariant
}

func (o Options) withDefaults() Options {
	if o.MealDurationHours <= 0 {
		o.MealDurationHours = DefaultMealDurationHours
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = DefaultMaxPoints
	}
	return o
}

// Interval returns the sampling interval for a time range: 15 minutes up to
// 14 days, one hour up to 30 days and three hours beyond
func Interval(span time.Duration) time.Duration {
	switch {
	case span <= 14*24*time.Hour:
		return 15 * time.Minute
	case span <= 30*24*time.Hour:
		return time.Hour
	default:
		return 3 * time.Hour
	}
}

// boundedInterval widens the interval until the span fits in maxPoints ticks
func boundedInterval(span time.Duration, maxPoints int) time.Duration {
	interval := Interval(span)
	if maxPoints < 2 {
		return interval
	}
	if int64(span/interval)+1 > int64(maxPoints) {
		minimum := time.Duration(math.Ceil(float64(span) / float64(maxPoints-1)))
		interval = ((minimum + time.Minute - 1) / time.Minute) * time.Minute
	}
	return interval
}

// Composite merges meal effects, insulin activity and glucose readings into one
// timeline sampled at a fixed interval. It is a pure function of its inputs:
// identical inputs produce identical output.
func Composite(
	meals []models.MealEntry,
	doses []models.InsulinDose,
	readings []models.BloodGlucoseReading,
	p *models.PatientProfile,
	opts Options,
) []models.TimelinePoint {
	if p == nil {
		return nil
	}
	opts = opts.withDefaults()

	now := opts.Now
	if now.IsZero() {
		now = latestInput(meals, doses, readings)
	}

	meals = normalizeMeals(meals, now)
	doses = normalizeDoses(doses, p.DefaultInsulin, now)
	readings = normalizeReadings(readings, now)

	start, end, ok := bounds(meals, doses, readings)
	if !ok {
		start, end = now, now
	}
	if opts.FutureHours > 0 {
		if now.After(end) {
			end = now
		}
		end = end.Add(time.Duration(opts.FutureHours * float64(time.Hour)))
	}

	span := end.Sub(start)
	interval := boundedInterval(span, opts.MaxPoints)

	carbSensitivity := p.CarbSensitivity()
	points := make([]models.TimelinePoint, 0, int(span/interval)+1)

	for i := 0; i < opts.MaxPoints; i++ {
		tick := start.Add(time.Duration(i) * interval)
		if tick.After(end) {
			break
		}

		point := models.TimelinePoint{
			Timestamp:    tick.UnixMilli(),
			IsHistorical: !tick.After(now),
		}

		if actual, ok := nearestReading(readings, tick, interval/2); ok {
			v := actual.Value
			point.BloodGlucoseActual = &v
			point.BloodGlucose = v
		} else {
			point.BaselineEstimated = true
			point.BloodGlucose = p.TargetGlucose
			if last, ok := lastReadingBefore(readings, tick); ok {
				point.BloodGlucose = last.Value
			}
		}

		for _, m := range meals {
			hours := tick.Sub(m.At.Time).Hours()
			point.MealEffect += MealImpactAt(m.Nutrition, p, hours, opts.MealDurationHours)
		}
		for _, d := range doses {
			hours := tick.Sub(d.AdministeredAt.Time).Hours()
			point.InsulinActiveUnits += d.Units * ActivityPercentAt(d.Pharmacokinetics, hours, opts.Variant) / 100
		}

		point.MealImpact = point.MealEffect * carbSensitivity
		point.InsulinImpact = -point.InsulinActiveUnits * p.CorrectionFactor
		point.NetEffect = point.MealImpact + point.InsulinImpact
		point.ProjectedBG = math.Max(MinProjectedBG, point.BloodGlucose+point.NetEffect)

		switch {
		case !point.IsHistorical:
			point.DisplayBG = point.ProjectedBG
		case point.BloodGlucoseActual != nil:
			point.DisplayBG = *point.BloodGlucoseActual
		default:
			point.DisplayBG = point.BloodGlucose
		}

		points = append(points, point)
	}

	return points
}

func latestInput(meals []models.MealEntry, doses []models.InsulinDose, readings []models.BloodGlucoseReading) time.Time {
	var latest time.Time
	consider := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}
	for _, m := range meals {
		consider(m.At.Time)
	}
	for _, d := range doses {
		consider(d.AdministeredAt.Time)
	}
	for _, r := range readings {
		consider(r.At.Time)
	}
	return latest
}

func normalizeMeals(meals []models.MealEntry, now time.Time) []models.MealEntry {
	out := make([]models.MealEntry, len(meals))
	for i, m := range meals {
		m.At = models.At(m.At.OrNow(now))
		out[i] = m
	}
	return out
}

func normalizeDoses(doses []models.InsulinDose, fallback models.Pharmacokinetics, now time.Time) []models.InsulinDose {
	if !fallback.Defined() {
		fallback = models.InsulinPresets["rapid_acting"]
	}
	out := make([]models.InsulinDose, 0, len(doses))
	for _, d := range doses {
		d = d.WithDefaults(fallback)
		d.AdministeredAt = models.At(d.AdministeredAt.OrNow(now))
		out = append(out, d)
	}
	return out
}

func normalizeReadings(readings []models.BloodGlucoseReading, now time.Time) []models.BloodGlucoseReading {
	out := make([]models.BloodGlucoseReading, 0, len(readings))
	for _, r := range readings {
		if math.IsNaN(r.Value) || r.Value <= 0 {
			continue
		}
		r.At = models.At(r.At.OrNow(now))
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At.Time) })
	return out
}

func bounds(meals []models.MealEntry, doses []models.InsulinDose, readings []models.BloodGlucoseReading) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	consider := func(t time.Time) {
		if !found {
			start, end, found = t, t, true
			return
		}
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	for _, m := range meals {
		consider(m.At.Time)
	}
	for _, d := range doses {
		consider(d.AdministeredAt.Time)
	}
	for _, r := range readings {
		consider(r.At.Time)
	}
	return start, end, found
}

// nearestReading finds the reading closest to at within maxDiff; readings must be sorted
func nearestReading(readings []models.BloodGlucoseReading, at time.Time, maxDiff time.Duration) (models.BloodGlucoseReading, bool) {
	idx := sort.Search(len(readings), func(i int) bool { return !readings[i].At.Before(at) })

	best := -1
	bestDiff := maxDiff
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(readings) {
			continue
		}
		diff := readings[i].At.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return models.BloodGlucoseReading{}, false
	}
	return readings[best], true
}

// lastReadingBefore returns the latest reading at or before at; readings must be sorted
func lastReadingBefore(readings []models.BloodGlucoseReading, at time.Time) (models.BloodGlucoseReading, bool) {
	idx := sort.Search(len(readings), func(i int) bool { return readings[i].At.After(at) })
	if idx == 0 {
		return models.BloodGlucoseReading{}, false
	}
	return readings[idx-1], true
}
