package models

import (
	"testing"
	"time"
)

func testProfile() *PatientProfile {
	return &PatientProfile{
		InsulinToCarbRatio: 10,
		CorrectionFactor:   50,
		TargetGlucose:      100,
		AbsorptionModifiers: map[AbsorptionType]float64{
			AbsorptionFast: 1.2,
		},
		ActivityCoefficients: map[ActivityLevel]float64{
			ActivityHigh: -0.1,
		},
		MealTimingFactors: map[MealType]float64{
			MealBreakfast: 1.1,
		},
		TimeOfDayFactors: []TimeOfDayFactor{
			{Name: "night", StartHour: 22, EndHour: 6, Factor: 0.9},
			{Name: "morning", StartHour: 6, EndHour: 10, Factor: 1.2},
		},
		MedicationFactors: map[string]MedicationFactor{
			"steroid": {Factor: 1.4, DurationBased: true, OnsetHours: Float(2)},
		},
		MedicationSchedules: map[string]Schedule{
			"steroid": {DailyTimes: []string{"08:00"}},
		},
		DefaultInsulin: InsulinPresets["rapid_acting"],
	}
}

func TestPatientProfile_UnknownKeysAreNeutral(t *testing.T) {
	p := testProfile()

	if got := p.AbsorptionModifier("gelatinous"); got != 1.0 {
		t.Errorf("AbsorptionModifier(unknown) = %v, want 1.0", got)
	}
	if got := p.AbsorptionModifier(AbsorptionFast); got != 1.2 {
		t.Errorf("AbsorptionModifier(fast) = %v, want 1.2", got)
	}
	if got := p.ActivityCoefficient(7); got != 0 {
		t.Errorf("ActivityCoefficient(7) = %v, want 0", got)
	}
	if got := p.MealTimingFactor("brunch"); got != 1.0 {
		t.Errorf("MealTimingFactor(unknown) = %v, want 1.0", got)
	}
	if got := p.MealTimingFactor(MealBreakfast); got != 1.1 {
		t.Errorf("MealTimingFactor(breakfast) = %v, want 1.1", got)
	}
}

func TestPatientProfile_TimeOfDayFactor(t *testing.T) {
	p := testProfile()

	tests := []struct {
		hour     int
		expected float64
	}{
		{23, 0.9},
		{2, 0.9},
		{6, 1.2},
		{9, 1.2},
		{10, 1.0},
		{15, 1.0},
	}

	for _, tt := range tests {
		at := time.Date(2024, 5, 1, tt.hour, 30, 0, 0, time.UTC)
		if got := p.TimeOfDayFactor(at); got != tt.expected {
			t.Errorf("TimeOfDayFactor(%02d:30) = %v, want %v", tt.hour, got, tt.expected)
		}
	}
}

func TestPatientProfile_CarbSensitivity(t *testing.T) {
	p := testProfile()
	if got := p.CarbSensitivity(); got != 5 {
		t.Errorf("CarbSensitivity() = %v, want 5", got)
	}
	p.InsulinToCarbRatio = 0
	if got := p.CarbSensitivity(); got != 0 {
		t.Errorf("CarbSensitivity() with zero ratio = %v, want 0", got)
	}
}

func TestPatientProfile_Clone(t *testing.T) {
	original := testProfile()
	clone := original.Clone()

	clone.AbsorptionModifiers[AbsorptionFast] = 2
	clone.TimeOfDayFactors[0].Factor = 0.1
	*clone.MedicationFactors["steroid"].OnsetHours = 9
	clone.MedicationSchedules["steroid"].DailyTimes[0] = "20:00"
	*clone.DefaultInsulin.PeakHours = 3

	if original.AbsorptionModifiers[AbsorptionFast] != 1.2 {
		t.Error("Clone shares AbsorptionModifiers with original")
	}
	if original.TimeOfDayFactors[0].Factor != 0.9 {
		t.Error("Clone shares TimeOfDayFactors with original")
	}
	if *original.MedicationFactors["steroid"].OnsetHours != 2 {
		t.Error("Clone shares medication onset with original")
	}
	if original.MedicationSchedules["steroid"].DailyTimes[0] != "08:00" {
		t.Error("Clone shares schedule times with original")
	}
	if *original.DefaultInsulin.PeakHours == 3 {
		t.Error("Clone shares default insulin peak with original")
	}
}

func TestSchedule_Active(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	s := &Schedule{StartDate: start, EndDate: end}

	if s.Active(start.Add(-time.Hour)) {
		t.Error("Active() before start = true, want false")
	}
	if !s.Active(start.Add(48 * time.Hour)) {
		t.Error("Active() inside range = false, want true")
	}
	if s.Active(end.Add(time.Hour)) {
		t.Error("Active() after end = true, want false")
	}
	if !(&Schedule{}).Active(end) {
		t.Error("Active() with open bounds = false, want true")
	}
}

func TestAbsorptionType(t *testing.T) {
	if AbsorptionType("bogus").Valid() {
		t.Error("Valid() accepted an unknown type")
	}
	if got := AbsorptionType("bogus").OrMedium(); got != AbsorptionMedium {
		t.Errorf("OrMedium() = %s, want medium", got)
	}
	if AbsorptionVeryFast.Rank() <= AbsorptionSlow.Rank() {
		t.Error("Rank() does not order very_fast above slow")
	}
}
