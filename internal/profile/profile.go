// Package profile loads patient profiles from YAML and keeps a hot-reloadable snapshot
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"github.com/mrcode/glucoplan/internal/models"
)

// ErrInvalidProfile is returned when a profile fails validation
var ErrInvalidProfile = errors.New("invalid patient profile")

// Defaults returns the default patient constants
func Defaults() *models.PatientProfile {
	return &models.PatientProfile{
		InsulinToCarbRatio: 10,
		CorrectionFactor:   50,
		TargetGlucose:      100,
		ProteinFactor:      0.5,
		FatFactor:          0.2,
		AbsorptionModifiers: map[models.AbsorptionType]float64{
			models.AbsorptionVerySlow: 0.6,
			models.AbsorptionSlow:     0.8,
			models.AbsorptionMedium:   1.0,
			models.AbsorptionFast:     1.2,
			models.AbsorptionVeryFast: 1.4,
		},
		ActivityCoefficients: map[models.ActivityLevel]float64{
			models.ActivityVeryLow:  0.2,
			models.ActivityLow:      0.1,
			models.ActivityNormal:   0,
			models.ActivityHigh:     -0.1,
			models.ActivityVeryHigh: -0.2,
		},
		MealTimingFactors:   map[models.MealType]float64{},
		DiseaseFactors:      map[string]models.ConditionFactor{},
		MedicationFactors:   map[string]models.MedicationFactor{},
		MedicationSchedules: map[string]models.Schedule{},
		DefaultInsulin:      models.InsulinPresets["rapid_acting"],
	}
}

// scheduleFile is the on-disk form of a medication schedule; dates are free-form
type scheduleFile struct {
	StartDate  string   `yaml:"start_date"`
	EndDate    string   `yaml:"end_date"`
	DailyTimes []string `yaml:"daily_times"`
}

// file is the YAML layout of a profile. Pointer fields distinguish
// "absent" from an explicit zero so the defaults survive partial files.
type file struct {
	PatientID            string                             `yaml:"patient_id"`
	InsulinToCarbRatio   *float64                           `yaml:"insulin_to_carb_ratio"`
	CorrectionFactor     *float64                           `yaml:"correction_factor"`
	TargetGlucose        *float64                           `yaml:"target_glucose"`
	ProteinFactor        *float64                           `yaml:"protein_factor"`
	FatFactor            *float64                           `yaml:"fat_factor"`
	AbsorptionModifiers  map[string]float64                 `yaml:"absorption_modifiers"`
	ActivityCoefficients map[int]float64                    `yaml:"activity_coefficients"`
	MealTimingFactors    map[string]float64                 `yaml:"meal_timing_factors"`
	TimeOfDayFactors     []models.TimeOfDayFactor           `yaml:"time_of_day_factors"`
	DiseaseFactors       map[string]models.ConditionFactor  `yaml:"disease_factors"`
	ActiveConditions     []string                           `yaml:"active_conditions"`
	MedicationFactors    map[string]models.MedicationFactor `yaml:"medication_factors"`
	ActiveMedications    []string                           `yaml:"active_medications"`
	MedicationSchedules  map[string]scheduleFile            `yaml:"medication_schedules"`
	DefaultInsulin       *models.Pharmacokinetics           `yaml:"default_insulin"`
	DefaultInsulinPreset string                             `yaml:"default_insulin_preset"`
}

// Load reads a profile file and overlays it on Defaults
func Load(path string) (*models.PatientProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML profile data, overlays it on Defaults and validates the result
func Parse(data []byte) (*models.PatientProfile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	// A truncated file mid-save must not turn into the defaults
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidProfile)
	}

	var f file
	if err := doc.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	p := Defaults()
	if err := f.apply(p); err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *file) apply(p *models.PatientProfile) error {
	p.PatientID = f.PatientID

	setFloat(&p.InsulinToCarbRatio, f.InsulinToCarbRatio)
	setFloat(&p.CorrectionFactor, f.CorrectionFactor)
	setFloat(&p.TargetGlucose, f.TargetGlucose)
	setFloat(&p.ProteinFactor, f.ProteinFactor)
	setFloat(&p.FatFactor, f.FatFactor)

	for k, v := range f.AbsorptionModifiers {
		p.AbsorptionModifiers[models.AbsorptionType(strings.ToLower(k))] = v
	}
	for k, v := range f.ActivityCoefficients {
		p.ActivityCoefficients[models.ActivityLevel(k)] = v
	}
	for k, v := range f.MealTimingFactors {
		p.MealTimingFactors[models.MealType(strings.ToLower(k))] = v
	}
	if f.TimeOfDayFactors != nil {
		p.TimeOfDayFactors = f.TimeOfDayFactors
	}
	for k, v := range f.DiseaseFactors {
		p.DiseaseFactors[k] = v
	}
	for k, v := range f.MedicationFactors {
		p.MedicationFactors[k] = v
	}
	p.ActiveConditions = f.ActiveConditions
	p.ActiveMedications = f.ActiveMedications

	for name, s := range f.MedicationSchedules {
		start, err := parseDate(s.StartDate)
		if err != nil {
			return fmt.Errorf("%w: medication %s start_date: %v", ErrInvalidProfile, name, err)
		}
		end, err := parseDate(s.EndDate)
		if err != nil {
			return fmt.Errorf("%w: medication %s end_date: %v", ErrInvalidProfile, name, err)
		}
		p.MedicationSchedules[name] = models.Schedule{
			StartDate:  start,
			EndDate:    end,
			DailyTimes: s.DailyTimes,
		}
	}

	if f.DefaultInsulinPreset != "" {
		preset, ok := models.InsulinPresets[f.DefaultInsulinPreset]
		if !ok {
			return fmt.Errorf("%w: unknown insulin preset %q", ErrInvalidProfile, f.DefaultInsulinPreset)
		}
		p.DefaultInsulin = preset
	}
	if f.DefaultInsulin != nil {
		p.DefaultInsulin = *f.DefaultInsulin
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// parseDate accepts any layout dateparse understands. An empty string is an open bound.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q", s)
	}
	return t, nil
}

// Validate checks the constants dosing depends on
func Validate(p *models.PatientProfile) error {
	var errs []string

	if p.InsulinToCarbRatio <= 0 {
		errs = append(errs, fmt.Sprintf("insulin_to_carb_ratio must be positive, got %g", p.InsulinToCarbRatio))
	}
	if p.CorrectionFactor <= 0 {
		errs = append(errs, fmt.Sprintf("correction_factor must be positive, got %g", p.CorrectionFactor))
	}
	if p.TargetGlucose <= 0 {
		errs = append(errs, fmt.Sprintf("target_glucose must be positive, got %g", p.TargetGlucose))
	}
	for i, b := range p.TimeOfDayFactors {
		if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 24 {
			errs = append(errs, fmt.Sprintf("time_of_day_factors[%d]: hours must be within 0-24", i))
		}
	}
	for name, s := range p.MedicationSchedules {
		if !s.StartDate.IsZero() && !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
			errs = append(errs, fmt.Sprintf("medication_schedules[%s]: end date before start date", name))
		}
	}
	if p.DefaultInsulin.Defined() {
		if err := p.DefaultInsulin.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("default_insulin: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidProfile, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Marshal renders a profile in the YAML layout Load reads
func Marshal(p *models.PatientProfile) ([]byte, error) {
	f := file{
		PatientID:            p.PatientID,
		InsulinToCarbRatio:   models.Float(p.InsulinToCarbRatio),
		CorrectionFactor:     models.Float(p.CorrectionFactor),
		TargetGlucose:        models.Float(p.TargetGlucose),
		ProteinFactor:        models.Float(p.ProteinFactor),
		FatFactor:            models.Float(p.FatFactor),
		AbsorptionModifiers:  make(map[string]float64, len(p.AbsorptionModifiers)),
		ActivityCoefficients: make(map[int]float64, len(p.ActivityCoefficients)),
		MealTimingFactors:    make(map[string]float64, len(p.MealTimingFactors)),
		TimeOfDayFactors:     p.TimeOfDayFactors,
		DiseaseFactors:       p.DiseaseFactors,
		ActiveConditions:     p.ActiveConditions,
		MedicationFactors:    p.MedicationFactors,
		ActiveMedications:    p.ActiveMedications,
		MedicationSchedules:  make(map[string]scheduleFile, len(p.MedicationSchedules)),
	}
	for k, v := range p.AbsorptionModifiers {
		f.AbsorptionModifiers[string(k)] = v
	}
	for k, v := range p.ActivityCoefficients {
		f.ActivityCoefficients[int(k)] = v
	}
	for k, v := range p.MealTimingFactors {
		f.MealTimingFactors[string(k)] = v
	}
	for k, s := range p.MedicationSchedules {
		f.MedicationSchedules[k] = scheduleFile{
			StartDate:  formatDate(s.StartDate),
			EndDate:    formatDate(s.EndDate),
			DailyTimes: s.DailyTimes,
		}
	}
	if p.DefaultInsulin.Defined() {
		pk := p.DefaultInsulin
		f.DefaultInsulin = &pk
	}

	out, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return out, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
