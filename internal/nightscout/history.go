// Package nightscout provides a client for interacting with the Nightscout API
package nightscout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
)

// Upper bounds on records requested per fetch
const (
	maxEntries    = 2000
	maxTreatments = 1000
)

// Profiles supplies the profile whose default insulin is applied to imported doses
type Profiles interface {
	Current() *models.PatientProfile
}

// Importer turns Nightscout entries and treatments into projection history
type Importer struct {
	client   *Client
	profiles Profiles
}

// NewImporter creates an importer. profiles may be nil.
func NewImporter(client *Client, profiles Profiles) *Importer {
	return &Importer{client: client, profiles: profiles}
}

// History fetches readings and treatments since the given time
func (im *Importer) History(ctx context.Context, since time.Time) (*models.History, error) {
	entries, err := im.client.GetEntries(ctx, since, time.Time{}, maxEntries)
	if err != nil {
		return nil, fmt.Errorf("fetching entries: %w", err)
	}

	treatments, err := im.client.GetTreatments(ctx, since, maxTreatments)
	if err != nil {
		return nil, fmt.Errorf("fetching treatments: %w", err)
	}

	var fallback models.Pharmacokinetics
	if im.profiles != nil {
		if p := im.profiles.Current(); p != nil {
			fallback = p.DefaultInsulin
		}
	}

	h := ConvertHistory(entries, treatments, fallback)
	logging.Logger(logging.SourceNightscout).Debug("History imported",
		"readings", len(h.Readings), "doses", len(h.Doses), "meals", len(h.Meals))
	return h, nil
}

// ConvertHistory maps Nightscout records onto readings, doses and meals, each
// sorted by time. Doses without a recognised insulin type get the fallback profile.
func ConvertHistory(entries []models.GlucoseEntry, treatments []models.Treatment, fallback models.Pharmacokinetics) *models.History {
	h := &models.History{}

	for i := range entries {
		if entries[i].SGV <= 0 {
			continue
		}
		h.Readings = append(h.Readings, entries[i].Reading())
	}

	for i := range treatments {
		t := &treatments[i]
		at := t.Time()
		if at.IsZero() {
			continue
		}

		if t.HasInsulin() && t.IsBolus() {
			h.Doses = append(h.Doses, convertDose(t, at, fallback))
		}
		if t.HasCarbs() {
			h.Meals = append(h.Meals, convertMeal(t, at))
		}
		if t.Glucose > 0 {
			h.Readings = append(h.Readings, convertCheck(t, at))
		}
	}

	sort.Slice(h.Readings, func(i, j int) bool { return h.Readings[i].At.Before(h.Readings[j].At.Time) })
	sort.Slice(h.Doses, func(i, j int) bool { return h.Doses[i].AdministeredAt.Before(h.Doses[j].AdministeredAt.Time) })
	sort.Slice(h.Meals, func(i, j int) bool { return h.Meals[i].At.Before(h.Meals[j].At.Time) })

	return h
}

// presetName normalises a free-form insulin type ("Rapid Acting") to a preset key
func presetName(insulinType string) string {
	name := strings.ToLower(strings.TrimSpace(insulinType))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name
}

func convertDose(t *models.Treatment, at time.Time, fallback models.Pharmacokinetics) models.InsulinDose {
	d := models.InsulinDose{
		ID:             t.ID,
		Medication:     presetName(t.InsulinType),
		Units:          t.Insulin,
		AdministeredAt: models.At(at),
	}
	if d.ID == "" {
		d.ID = models.NewID()
	}
	if d.Medication == "" {
		d.Medication = "bolus"
	}
	return d.WithDefaults(fallback)
}

func convertMeal(t *models.Treatment, at time.Time) models.MealEntry {
	m := models.MealEntry{
		ID:       t.ID,
		At:       models.At(at),
		MealType: t.MealType(),
		Nutrition: models.NutritionTotal{
			Carbs:          t.Carbs,
			Protein:        t.Protein,
			Fat:            t.Fat,
			Calories:       models.Calories(t.Carbs, t.Protein, t.Fat),
			AbsorptionType: t.AbsorptionType(),
		},
	}
	if m.ID == "" {
		m.ID = models.NewID()
	}
	return m
}

// convertCheck turns a finger-stick value into a reading, converting mmol/L entries
func convertCheck(t *models.Treatment, at time.Time) models.BloodGlucoseReading {
	value := t.Glucose
	if models.IsMmol(t.Units) {
		value = models.ToMgdl(value)
	}
	return models.BloodGlucoseReading{
		ID:     t.ID,
		Value:  value,
		At:     models.At(at),
		Source: "finger",
	}
}
