package health

import (
	"math"
	"testing"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

func steroidProfile() *models.PatientProfile {
	return &models.PatientProfile{
		DiseaseFactors: map[string]models.ConditionFactor{
			"infection": {Factor: 1.2},
		},
		MedicationFactors: map[string]models.MedicationFactor{
			"prednisone": {
				Factor:        1.5,
				DurationBased: true,
				OnsetHours:    models.Float(2),
				PeakHours:     models.Float(4),
				DurationHours: models.Float(12),
			},
			"metformin": {Factor: 0.9},
		},
		MedicationSchedules: map[string]models.Schedule{
			"prednisone": {
				StartDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
				DailyTimes: []string{"08:00"},
			},
		},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 10, hour, minute, 0, 0, time.UTC)
}

func TestComputeHealthMultiplier_NothingActive(t *testing.T) {
	if got := ComputeHealthMultiplier(steroidProfile(), at(12, 0)); got != 1.0 {
		t.Errorf("ComputeHealthMultiplier() = %v, want 1.0", got)
	}
	if got := ComputeHealthMultiplier(nil, at(12, 0)); got != 1.0 {
		t.Errorf("ComputeHealthMultiplier(nil) = %v, want 1.0", got)
	}
}

func TestComputeHealthMultiplier_FixedFactors(t *testing.T) {
	p := steroidProfile()
	p.ActiveConditions = []string{"infection", "unknown_condition"}
	p.ActiveMedications = []string{"metformin", "unknown_drug"}

	if got := ComputeHealthMultiplier(p, at(12, 0)); math.Abs(got-1.08) > 1e-9 {
		t.Errorf("ComputeHealthMultiplier() = %v, want 1.08", got)
	}
}

func TestMedicationFactorAt_Phases(t *testing.T) {
	p := steroidProfile()
	f := p.MedicationFactors["prednisone"]
	s := p.MedicationSchedules["prednisone"]

	tests := []struct {
		name     string
		now      time.Time
		expected float64
	}{
		{"at dose", at(8, 0), 1.0},
		{"mid ramp", at(9, 0), 1.25},
		{"onset reached", at(10, 0), 1.5},
		{"peak phase", at(11, 0), 1.5},
		{"mid taper", at(16, 0), 1.25},
		{"expired", at(20, 0), 1.0},
		{"rolled back to yesterday", at(6, 0), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MedicationFactorAt(f, &s, tt.now)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MedicationFactorAt(%s) = %v, want %v", tt.now.Format("15:04"), got, tt.expected)
			}
		})
	}
}

func TestMedicationFactorAt_OutsideSchedule(t *testing.T) {
	p := steroidProfile()
	f := p.MedicationFactors["prednisone"]
	s := p.MedicationSchedules["prednisone"]

	june := time.Date(2024, 6, 5, 11, 0, 0, 0, time.UTC)
	if got := MedicationFactorAt(f, &s, june); got != 1.0 {
		t.Errorf("MedicationFactorAt() after end date = %v, want 1.0", got)
	}
}

func TestMedicationFactorAt_WithoutSchedule(t *testing.T) {
	f := steroidProfile().MedicationFactors["prednisone"]
	if got := MedicationFactorAt(f, nil, at(11, 0)); got != 1.5 {
		t.Errorf("MedicationFactorAt() without schedule = %v, want 1.5", got)
	}
}

func TestMedicationFactorAt_MissingPeakUsesOnset(t *testing.T) {
	f := models.MedicationFactor{Factor: 2, DurationBased: true, OnsetHours: models.Float(2), DurationHours: models.Float(6)}
	s := &models.Schedule{DailyTimes: []string{"08:00"}}

	// Taper runs from onset (10:00) to 14:00
	if got := MedicationFactorAt(f, s, at(12, 0)); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("MedicationFactorAt() = %v, want 1.5", got)
	}
}

func TestComputeHealthMultiplier_Combined(t *testing.T) {
	p := steroidProfile()
	p.ActiveConditions = []string{"infection"}
	p.ActiveMedications = []string{"prednisone"}

	got := ComputeHealthMultiplier(p, at(11, 0))
	if math.Abs(got-1.8) > 1e-9 {
		t.Errorf("ComputeHealthMultiplier() = %v, want 1.8", got)
	}

	breakdown := Breakdown(p, at(11, 0))
	if len(breakdown) != 2 || breakdown[1].Phase != PhasePeak {
		t.Errorf("Breakdown() = %+v, want condition plus medication at peak", breakdown)
	}
}

func TestLastDoseTime(t *testing.T) {
	times := []string{"20:00", "08:00", "bad", "25:00"}

	got, ok := LastDoseTime(times, at(12, 0))
	if !ok || !got.Equal(at(8, 0)) {
		t.Errorf("LastDoseTime(12:00) = %v, %v, want 08:00 today", got, ok)
	}

	got, ok = LastDoseTime(times, at(7, 0))
	want := at(20, 0).AddDate(0, 0, -1)
	if !ok || !got.Equal(want) {
		t.Errorf("LastDoseTime(07:00) = %v, %v, want %v", got, ok, want)
	}

	if _, ok := LastDoseTime([]string{"nope"}, at(7, 0)); ok {
		t.Error("LastDoseTime() with no parseable times reported a dose")
	}
}
