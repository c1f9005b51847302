package prediction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

type fakeSource struct {
	history *models.History
	err     error
	calls   int
	since   time.Time
}

func (f *fakeSource) History(_ context.Context, since time.Time) (*models.History, error) {
	f.calls++
	f.since = since
	return f.history, f.err
}

type staticProfile struct {
	profile *models.PatientProfile
}

func (s staticProfile) Current() *models.PatientProfile {
	return s.profile
}

func TestService_ProjectNoSource(t *testing.T) {
	svc := NewService(nil, staticProfile{testProfile()}, DefaultConfig())
	if _, err := svc.Project(context.Background(), base); !errors.Is(err, ErrNoSource) {
		t.Errorf("Project() error = %v, want ErrNoSource", err)
	}
}

func TestService_ProjectSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	svc := NewService(src, staticProfile{testProfile()}, DefaultConfig())
	if _, err := svc.Project(context.Background(), base); err == nil {
		t.Error("Project() returned no error for a failing source")
	}
}

func TestService_Project(t *testing.T) {
	src := &fakeSource{history: &models.History{
		Readings: []models.BloodGlucoseReading{{Value: 180, At: models.At(base)}},
		Doses:    []models.InsulinDose{testDose()},
	}}
	svc := NewService(src, staticProfile{testProfile()}, DefaultConfig())

	proj, err := svc.Project(context.Background(), base)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if !src.since.Equal(base.Add(-8 * time.Hour)) {
		t.Errorf("History() since = %v, want 8 h before now", src.since)
	}
	if proj.CurrentBG == nil || *proj.CurrentBG != 180 {
		t.Errorf("CurrentBG = %v, want 180", proj.CurrentBG)
	}
	// 5 units at full activity two hours later drive the projection under the floor
	if proj.LowInMinutes < 0 || proj.MinProjected >= MinProjectedBG {
		t.Errorf("LowInMinutes = %v, MinProjected = %v, want a projected low", proj.LowInMinutes, proj.MinProjected)
	}

	// Fresh cache: no second fetch
	if _, err := svc.Project(context.Background(), base.Add(time.Minute)); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("History() called %d times, want 1", src.calls)
	}

	svc.RefreshCache()
	if _, err := svc.Project(context.Background(), base.Add(2*time.Minute)); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if src.calls != 2 {
		t.Errorf("History() called %d times after refresh, want 2", src.calls)
	}
}

func TestService_ProjectWithScenario(t *testing.T) {
	src := &fakeSource{history: &models.History{
		Readings: []models.BloodGlucoseReading{{Value: 120, At: models.At(base)}},
	}}
	svc := NewService(src, staticProfile{testProfile()}, DefaultConfig())

	plain, err := svc.Project(context.Background(), base)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if plain.HighInMinutes != -1 {
		t.Errorf("HighInMinutes = %v, want -1 without meals", plain.HighInMinutes)
	}

	meal := models.MealEntry{At: models.At(base), Nutrition: models.NutritionTotal{Carbs: 80, AbsorptionType: models.AbsorptionFast}}
	withMeal, err := svc.ProjectWithScenario(context.Background(), base, []models.MealEntry{meal}, nil)
	if err != nil {
		t.Fatalf("ProjectWithScenario() error = %v", err)
	}
	if withMeal.HighInMinutes < 0 {
		t.Errorf("HighInMinutes = %v, want a projected high after 80 g fast carbs", withMeal.HighInMinutes)
	}
}

func TestSummarize(t *testing.T) {
	actual := 130.0
	points := []models.TimelinePoint{
		{Timestamp: base.UnixMilli(), IsHistorical: true, BloodGlucoseActual: &actual, InsulinActiveUnits: 1.5},
		{Timestamp: base.Add(15 * time.Minute).UnixMilli(), ProjectedBG: 150},
		{Timestamp: base.Add(30 * time.Minute).UnixMilli(), ProjectedBG: 190},
		{Timestamp: base.Add(45 * time.Minute).UnixMilli(), ProjectedBG: 200},
	}

	s := Summarize(points, base, 70, 180)
	if s.HighInMinutes != 30 || s.LowInMinutes != -1 {
		t.Errorf("HighInMinutes = %v, LowInMinutes = %v, want 30 and -1", s.HighInMinutes, s.LowInMinutes)
	}
	if s.MinProjected != 150 || s.MaxProjected != 200 {
		t.Errorf("projected range = %v..%v, want 150..200", s.MinProjected, s.MaxProjected)
	}
	if s.ActiveInsulin != 1.5 || s.CurrentBG == nil || *s.CurrentBG != 130 {
		t.Errorf("summary = %+v, want 1.5 units active and current 130", s)
	}
}

func TestSummarize_LowUnderFloor(t *testing.T) {
	points := []models.TimelinePoint{
		{Timestamp: base.Add(15 * time.Minute).UnixMilli(), BloodGlucose: 80, NetEffect: -5, ProjectedBG: 75},
		{Timestamp: base.Add(30 * time.Minute).UnixMilli(), BloodGlucose: 80, NetEffect: -50, ProjectedBG: MinProjectedBG},
		{Timestamp: base.Add(45 * time.Minute).UnixMilli(), BloodGlucose: 80, NetEffect: -120, ProjectedBG: MinProjectedBG},
	}

	s := Summarize(points, base, 65, 180)
	if s.LowInMinutes != 30 {
		t.Errorf("LowInMinutes = %v, want 30 for a point at 30 mg/dL", s.LowInMinutes)
	}
	if s.MinProjected != 0 || s.MaxProjected != 75 {
		t.Errorf("projected range = %v..%v, want 0..75", s.MinProjected, s.MaxProjected)
	}
}

func TestUnflooredBG(t *testing.T) {
	tests := []struct {
		name string
		pt   models.TimelinePoint
		want float64
	}{
		{"above floor", models.TimelinePoint{BloodGlucose: 120, NetEffect: 10, ProjectedBG: 130}, 130},
		{"floored", models.TimelinePoint{BloodGlucose: 80, NetEffect: -25, ProjectedBG: MinProjectedBG}, 55},
		{"negative clamps to zero", models.TimelinePoint{BloodGlucose: 60, NetEffect: -200, ProjectedBG: MinProjectedBG}, 0},
		{"exactly at floor", models.TimelinePoint{BloodGlucose: 70, ProjectedBG: MinProjectedBG}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnflooredBG(tt.pt); got != tt.want {
				t.Errorf("UnflooredBG() = %v, want %v", got, tt.want)
			}
		})
	}
}
