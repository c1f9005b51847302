// Package models contains data structures used throughout the application
package models

import "fmt"

// Pharmacokinetics describes when an insulin dose begins acting, peaks and stops acting.
// A nil PeakHours marks a peakless (basal-like) profile.
type Pharmacokinetics struct {
	OnsetHours    float64  `json:"onsetHours" yaml:"onset_hours"`
	PeakHours     *float64 `json:"peakHours" yaml:"peak_hours"`
	DurationHours float64  `json:"durationHours" yaml:"duration_hours"`
}

// Defined reports whether the profile carries a usable duration
func (p Pharmacokinetics) Defined() bool {
	return p.DurationHours > 0
}

// Peakless reports whether the profile has no peak
func (p Pharmacokinetics) Peakless() bool {
	return p.PeakHours == nil
}

// Validate checks the ordering onset <= peak <= duration
func (p Pharmacokinetics) Validate() error {
	if p.DurationHours <= 0 {
		return fmt.Errorf("duration must be positive, got %.2f", p.DurationHours)
	}
	if p.OnsetHours < 0 || p.OnsetHours > p.DurationHours {
		return fmt.Errorf("onset %.2f outside [0, %.2f]", p.OnsetHours, p.DurationHours)
	}
	if p.PeakHours != nil && (*p.PeakHours <= 0 || *p.PeakHours > p.DurationHours) {
		return fmt.Errorf("peak %.2f outside (0, %.2f]", *p.PeakHours, p.DurationHours)
	}
	return nil
}

// InsulinPresets are typical pharmacokinetic profiles by insulin class
var InsulinPresets = map[string]Pharmacokinetics{
	"rapid_acting":        {OnsetHours: 0.25, PeakHours: Float(1.25), DurationHours: 5},
	"short_acting":        {OnsetHours: 0.5, PeakHours: Float(2.5), DurationHours: 8},
	"intermediate_acting": {OnsetHours: 1.5, PeakHours: Float(6), DurationHours: 16},
	"long_acting":         {OnsetHours: 1, PeakHours: nil, DurationHours: 24},
}

// InsulinDose is one logged insulin administration. It is immutable once logged.
type InsulinDose struct {
	ID               string           `json:"id"`
	Medication       string           `json:"medication"`
	Units            float64          `json:"doseUnits"`
	AdministeredAt   Timestamp        `json:"administrationTime"`
	Pharmacokinetics Pharmacokinetics `json:"pharmacokinetics"`
}

// WithDefaults fills a missing pharmacokinetic profile, first from the
// medication's preset and then from the fallback
func (d InsulinDose) WithDefaults(fallback Pharmacokinetics) InsulinDose {
	if d.Pharmacokinetics.Defined() {
		return d
	}
	if preset, ok := InsulinPresets[d.Medication]; ok {
		d.Pharmacokinetics = preset
		return d
	}
	d.Pharmacokinetics = fallback
	return d
}
