package prediction

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

func testDose() models.InsulinDose {
	return models.InsulinDose{
		Medication:     "rapid_acting",
		Units:          5,
		AdministeredAt: models.At(base),
		Pharmacokinetics: models.Pharmacokinetics{
			OnsetHours:    0.5,
			PeakHours:     models.Float(2),
			DurationHours: 5,
		},
	}
}

func TestActivityPercentAt_Scenario(t *testing.T) {
	pk := testDose().Pharmacokinetics

	tests := []struct {
		hours    float64
		expected float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 20},  // half of onset, onset value is peak/duration = 40%
		{0.5, 40},   // onset reached
		{1.25, 70},  // halfway between onset and peak
		{2, 100},    // peak
		{3.5, 50},   // halfway through decay
		{5, 0},      // end of duration
		{6, 0},      // past duration
	}

	for _, tt := range tests {
		got := ActivityPercentAt(pk, tt.hours, RiseOnsetScaled)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ActivityPercentAt(%v) = %v, want %v", tt.hours, got, tt.expected)
		}
	}
}

func TestActivityPercentAt_RiseLinear(t *testing.T) {
	pk := testDose().Pharmacokinetics

	if got := ActivityPercentAt(pk, 1, RiseLinear); math.Abs(got-50) > 1e-9 {
		t.Errorf("ActivityPercentAt(1, linear) = %v, want 50", got)
	}
	if got := ActivityPercentAt(pk, 2, RiseLinear); got != 100 {
		t.Errorf("ActivityPercentAt(2, linear) = %v, want 100", got)
	}
}

func TestActivityPercentAt_Peakless(t *testing.T) {
	pk := models.Pharmacokinetics{OnsetHours: 2, DurationHours: 24}

	tests := []struct {
		hours    float64
		expected float64
	}{
		{0, 0},
		{1, 25},
		{2, 50},
		{13, 25},
		{24, 0},
	}

	for _, tt := range tests {
		got := ActivityPercentAt(pk, tt.hours, RiseOnsetScaled)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ActivityPercentAt(peakless, %v) = %v, want %v", tt.hours, got, tt.expected)
		}
	}
}

func TestProjectActivity_SingleHump(t *testing.T) {
	for _, variant := range []CurveVariant{RiseOnsetScaled, RiseLinear} {
		points := ProjectActivityVariant(testDose(), 0, 5*time.Minute, variant)
		if len(points) != 61 {
			t.Fatalf("ProjectActivityVariant() returned %d points, want 61", len(points))
		}

		falling := false
		for i := 1; i < len(points); i++ {
			prev, cur := points[i-1].ActivityPercent, points[i].ActivityPercent
			if cur < prev {
				falling = true
			}
			if falling && cur > prev+1e-9 {
				t.Fatalf("variant %d rises again at %v h", variant, points[i].HoursSinceDose)
			}
		}
	}
}

func TestProjectActivity_ActiveUnits(t *testing.T) {
	points := ProjectActivity(testDose(), 5, 30*time.Minute)

	at2h := points[4]
	if at2h.HoursSinceDose != 2 || at2h.ActivityPercent != 100 || at2h.ActiveUnits != 5 {
		t.Errorf("point at 2 h = %+v, want 100%% and 5 units", at2h)
	}
	if last := points[len(points)-1]; last.ActivityPercent != 0 {
		t.Errorf("point at %v h = %v%%, want 0", last.HoursSinceDose, last.ActivityPercent)
	}

	if !reflect.DeepEqual(points, ProjectActivity(testDose(), 5, 30*time.Minute)) {
		t.Error("ProjectActivity() is not idempotent")
	}
}
