// Package health computes the insulin multiplier of active conditions and medications
package health

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

// ComputeHealthMultiplier multiplies the factors of every active condition and
// medication at now. It returns exactly 1.0 when nothing is active.
func ComputeHealthMultiplier(p *models.PatientProfile, now time.Time) float64 {
	if p == nil {
		return 1.0
	}

	multiplier := 1.0
	for _, id := range p.ActiveConditions {
		if c, ok := p.DiseaseFactors[id]; ok {
			multiplier *= c.Factor
		}
	}

	for _, id := range p.ActiveMedications {
		f, ok := p.MedicationFactors[id]
		if !ok {
			continue
		}
		var schedule *models.Schedule
		if s, ok := p.MedicationSchedules[id]; ok {
			schedule = &s
		}
		multiplier *= MedicationFactorAt(f, schedule, now)
	}

	return multiplier
}

// Contribution is the factor one condition or medication contributes at a point in time
type Contribution struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"` // "condition" or "medication"
	Factor float64 `json:"factor"`
	Phase  Phase   `json:"phase"`
}

// Breakdown lists the contribution of every active condition and medication
func Breakdown(p *models.PatientProfile, now time.Time) []Contribution {
	if p == nil {
		return nil
	}

	var out []Contribution
	for _, id := range p.ActiveConditions {
		if c, ok := p.DiseaseFactors[id]; ok {
			out = append(out, Contribution{ID: id, Kind: "condition", Factor: c.Factor, Phase: PhaseFixed})
		}
	}
	for _, id := range p.ActiveMedications {
		f, ok := p.MedicationFactors[id]
		if !ok {
			continue
		}
		var schedule *models.Schedule
		if s, ok := p.MedicationSchedules[id]; ok {
			schedule = &s
		}
		factor, phase := medicationPhase(f, schedule, now)
		out = append(out, Contribution{ID: id, Kind: "medication", Factor: factor, Phase: phase})
	}
	return out
}

// Phase names where a medication is in its effect profile
type Phase string

const (
	PhaseFixed    Phase = "fixed"
	PhaseInactive Phase = "inactive"
	PhaseRamp     Phase = "ramp"
	PhasePeak     Phase = "peak"
	PhaseTaper    Phase = "taper"
	PhaseExpired  Phase = "expired"
)

// MedicationFactorAt returns the factor a medication contributes at now.
// Fixed medications, and duration-based ones without a schedule, contribute
// their full factor. Duration-based medications ramp from 1.0 to the factor
// over the onset, hold it until the peak, and taper back to 1.0 by the end
// of their duration.
func MedicationFactorAt(f models.MedicationFactor, s *models.Schedule, now time.Time) float64 {
	factor, _ := medicationPhase(f, s, now)
	return factor
}

func medicationPhase(f models.MedicationFactor, s *models.Schedule, now time.Time) (float64, Phase) {
	if !f.DurationBased || s == nil {
		return f.Factor, PhaseFixed
	}
	if !s.Active(now) {
		return 1.0, PhaseInactive
	}
	if f.DurationHours == nil || *f.DurationHours <= 0 {
		return f.Factor, PhaseFixed
	}

	last, ok := LastDoseTime(s.DailyTimes, now)
	if !ok {
		return 1.0, PhaseInactive
	}
	elapsed := now.Sub(last).Hours()

	onset := 0.0
	if f.OnsetHours != nil && *f.OnsetHours > 0 {
		onset = *f.OnsetHours
	}
	peak := onset
	if f.PeakHours != nil && *f.PeakHours > onset {
		peak = *f.PeakHours
	}
	duration := *f.DurationHours
	if peak > duration {
		peak = duration
	}

	switch {
	case elapsed < onset:
		return 1 + (f.Factor-1)*elapsed/onset, PhaseRamp
	case elapsed < peak:
		return f.Factor, PhasePeak
	case elapsed < duration:
		return 1 + (f.Factor-1)*(duration-elapsed)/(duration-peak), PhaseTaper
	default:
		return 1.0, PhaseExpired
	}
}

// LastDoseTime returns the most recent wall-clock dose time at or before now,
// rolling back to yesterday when every time today is still ahead. Unparseable
// entries are skipped.
func LastDoseTime(dailyTimes []string, now time.Time) (time.Time, bool) {
	var todays []time.Time
	for _, hhmm := range dailyTimes {
		h, m, ok := parseClock(hhmm)
		if !ok {
			continue
		}
		todays = append(todays, time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()))
	}
	if len(todays) == 0 {
		return time.Time{}, false
	}

	sort.Slice(todays, func(i, j int) bool { return todays[i].Before(todays[j]) })

	for i := len(todays) - 1; i >= 0; i-- {
		if !todays[i].After(now) {
			return todays[i], true
		}
	}
	return todays[len(todays)-1].AddDate(0, 0, -1), true
}

func parseClock(s string) (int, int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
