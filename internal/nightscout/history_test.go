package nightscout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

type staticProfiles struct {
	p *models.PatientProfile
}

func (s staticProfiles) Current() *models.PatientProfile { return s.p }

func TestConvertHistory(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	fallback := models.InsulinPresets["short_acting"]

	entries := []models.GlucoseEntry{
		{ID: "e2", SGV: 140, Date: base.Add(10 * time.Minute).UnixMilli()},
		{ID: "e1", SGV: 120, Date: base.UnixMilli()},
		{ID: "bad", SGV: 0, Date: base.UnixMilli()},
	}
	treatments := []models.Treatment{
		{ID: "meal", EventType: models.EventMealBolus, Date: base.Add(5 * time.Minute).UnixMilli(),
			Insulin: 5, InsulinType: "Rapid Acting", Carbs: 60, Protein: 10, Fat: 5, AbsorptionTime: 120},
		{ID: "corr", EventType: models.EventCorrectionBolus, Date: base.Add(-time.Hour).UnixMilli(), Insulin: 1.5},
		{ID: "basal", EventType: models.EventTempBasal, Date: base.UnixMilli(), Insulin: 0.8},
		{ID: "check", EventType: "BG Check", Date: base.Add(2 * time.Minute).UnixMilli(), Glucose: 7, Units: "mmol"},
		{ID: "undated", Carbs: 10},
	}

	h := ConvertHistory(entries, treatments, fallback)

	if len(h.Readings) != 3 {
		t.Fatalf("Readings = %d, want 3", len(h.Readings))
	}
	if h.Readings[0].ID != "e1" || h.Readings[1].ID != "check" || h.Readings[2].ID != "e2" {
		t.Errorf("Readings not sorted: %v, %v, %v", h.Readings[0].ID, h.Readings[1].ID, h.Readings[2].ID)
	}
	if h.Readings[1].Value != 126.1 {
		t.Errorf("finger check value = %v, want 126.1", h.Readings[1].Value)
	}

	if len(h.Doses) != 2 {
		t.Fatalf("Doses = %d, want 2", len(h.Doses))
	}
	if h.Doses[0].ID != "corr" {
		t.Errorf("first dose = %s, want corr", h.Doses[0].ID)
	}
	if h.Doses[0].Pharmacokinetics.DurationHours != 8 {
		t.Errorf("untyped dose duration = %v, want fallback 8", h.Doses[0].Pharmacokinetics.DurationHours)
	}
	if h.Doses[1].Medication != "rapid_acting" || h.Doses[1].Pharmacokinetics.DurationHours != 5 {
		t.Errorf("typed dose = %+v, want rapid_acting preset", h.Doses[1])
	}

	if len(h.Meals) != 1 {
		t.Fatalf("Meals = %d, want 1", len(h.Meals))
	}
	meal := h.Meals[0]
	if meal.Nutrition.Carbs != 60 || meal.Nutrition.AbsorptionType != models.AbsorptionFast {
		t.Errorf("meal nutrition = %+v, want 60g fast", meal.Nutrition)
	}
	if meal.Nutrition.Calories != 325 {
		t.Errorf("meal calories = %v, want 325", meal.Nutrition.Calories)
	}
	if meal.MealType != models.MealBreakfast {
		t.Errorf("meal type = %s, want breakfast", meal.MealType)
	}
}

func TestPresetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rapid Acting", "rapid_acting"},
		{"long-acting", "long_acting"},
		{"  ", ""},
		{"Fiasp", "fiasp"},
	}

	for _, tt := range tests {
		if got := presetName(tt.in); got != tt.want {
			t.Errorf("presetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImporter_History(t *testing.T) {
	now := time.Now()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/entries/sgv":
			_ = json.NewEncoder(w).Encode([]models.GlucoseEntry{
				{ID: "e1", SGV: 110, Date: now.Add(-10 * time.Minute).UnixMilli()},
			})
		case "/api/v1/treatments":
			_ = json.NewEncoder(w).Encode([]models.Treatment{
				{ID: "b1", EventType: models.EventBolus, Date: now.Add(-30 * time.Minute).UnixMilli(), Insulin: 2},
			})
		default:
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	profile := &models.PatientProfile{DefaultInsulin: models.InsulinPresets["intermediate_acting"]}
	im := NewImporter(NewClient(server.URL, "", "", false), staticProfiles{profile})

	h, err := im.History(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(h.Readings) != 1 || len(h.Doses) != 1 || len(h.Meals) != 0 {
		t.Fatalf("History() = %d readings, %d doses, %d meals", len(h.Readings), len(h.Doses), len(h.Meals))
	}
	if h.Doses[0].Pharmacokinetics.DurationHours != 16 {
		t.Errorf("dose duration = %v, want profile default 16", h.Doses[0].Pharmacokinetics.DurationHours)
	}
}

func TestImporter_HistoryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	im := NewImporter(NewClient(server.URL, "", "", false), nil)
	if _, err := im.History(context.Background(), time.Now().Add(-time.Hour)); err == nil {
		t.Error("History() expected error for failing server")
	}
}
