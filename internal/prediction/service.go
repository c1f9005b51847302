// Package prediction projects meal and insulin effects into a glucose timeline
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mrcode/glucoplan/internal/models"
)

// ErrNoSource is returned when the service has no history source configured
var ErrNoSource = errors.New("no history source configured")

// Source supplies logged readings, doses and meals since a point in time
type Source interface {
	History(ctx context.Context, since time.Time) (*models.History, error)
}

// ProfileSource supplies the current patient profile snapshot
type ProfileSource interface {
	Current() *models.PatientProfile
}

// Projection is a composited timeline plus a summary of the state at its "now"
type Projection struct {
	GeneratedAt   int64                  `json:"generatedAt"` // Unix milliseconds
	Points        []models.TimelinePoint `json:"points"`
	CurrentBG     *float64               `json:"currentBg,omitempty"`
	ActiveInsulin float64                `json:"activeInsulin"` // units active now
	MealEffect    float64                `json:"mealEffect"`    // carb-equivalent grams acting now
	MinProjected  float64                `json:"minProjected"` // before the display floor
	MaxProjected  float64                `json:"maxProjected"`
	LowInMinutes  float64                `json:"lowInMinutes"`  // -1 if no projected low
	HighInMinutes float64                `json:"highInMinutes"` // -1 if no projected high
}

// Config controls the projection service
type Config struct {
	HistoryHours  float64       // how far back history is fetched
	FutureHours   float64       // how far past now the timeline is projected
	LowThreshold  float64       // mg/dL
	HighThreshold float64       // mg/dL
	CacheDuration time.Duration // how long fetched history is reused
	Variant       CurveVariant
}

// DefaultConfig returns the service defaults
func DefaultConfig() Config {
	return Config{
		HistoryHours:  8,
		FutureHours:   3,
		LowThreshold:  70,
		HighThreshold: 180,
		CacheDuration: 5 * time.Minute,
	}
}

// Service projects the timeline from a history source and a profile
type Service struct {
	profiles ProfileSource
	config   Config

	mu     sync.Mutex
	source Source

	// Cached data
	cachedHistory *models.History
	cachedSince   time.Time
	cacheTime     time.Time
}

// NewService creates a new projection service
func NewService(source Source, profiles ProfileSource, config Config) *Service {
	if config.CacheDuration <= 0 {
		config.CacheDuration = DefaultConfig().CacheDuration
	}
	if config.HistoryHours <= 0 {
		config.HistoryHours = DefaultConfig().HistoryHours
	}
	return &Service{
		source:   source,
		profiles: profiles,
		config:   config,
	}
}

// Project composites the timeline at now from recent history
func (s *Service) Project(ctx context.Context, now time.Time) (*Projection, error) {
	return s.ProjectWithScenario(ctx, now, nil, nil)
}

// ProjectWithScenario composites the timeline with hypothetical meals and doses added
func (s *Service) ProjectWithScenario(
	ctx context.Context,
	now time.Time,
	extraMeals []models.MealEntry,
	extraDoses []models.InsulinDose,
) (*Projection, error) {
	history, err := s.recentHistory(ctx, now)
	if err != nil {
		return nil, err
	}

	profile := s.profiles.Current()
	if profile == nil {
		return nil, fmt.Errorf("no patient profile loaded")
	}

	meals := append(append([]models.MealEntry(nil), history.Meals...), extraMeals...)
	doses := append(append([]models.InsulinDose(nil), history.Doses...), extraDoses...)

	points := Composite(meals, doses, history.Readings, profile, Options{
		Now:         now,
		FutureHours: s.config.FutureHours,
		Variant:     s.config.Variant,
	})

	return Summarize(points, now, s.config.LowThreshold, s.config.HighThreshold), nil
}

// RefreshCache forces the next projection to fetch fresh history
func (s *Service) RefreshCache() {
	s.mu.Lock()
	s.cacheTime = time.Time{}
	s.mu.Unlock()
}

func (s *Service) recentHistory(ctx context.Context, now time.Time) (*models.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return nil, ErrNoSource
	}

	since := now.Add(-time.Duration(s.config.HistoryHours * float64(time.Hour)))

	// Use cache if still fresh and it covers the window
	if s.cachedHistory != nil && now.Sub(s.cacheTime) < s.config.CacheDuration && !since.Before(s.cachedSince) {
		return s.cachedHistory, nil
	}

	history, err := s.source.History(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	s.cachedHistory = history
	s.cachedSince = since
	s.cacheTime = now

	return history, nil
}

// Summarize derives the state at now and the first projected threshold crossings
func Summarize(points []models.TimelinePoint, now time.Time, low, high float64) *Projection {
	p := &Projection{
		GeneratedAt:   now.UnixMilli(),
		Points:        points,
		LowInMinutes:  -1,
		HighInMinutes: -1,
	}

	nowMs := now.UnixMilli()
	first := true
	for i := range points {
		pt := &points[i]

		if pt.IsHistorical {
			if pt.BloodGlucoseActual != nil {
				v := *pt.BloodGlucoseActual
				p.CurrentBG = &v
			}
			p.ActiveInsulin = pt.InsulinActiveUnits
			p.MealEffect = pt.MealEffect
			continue
		}

		bg := UnflooredBG(*pt)
		if first {
			p.MinProjected, p.MaxProjected = bg, bg
			first = false
		}
		p.MinProjected = math.Min(p.MinProjected, bg)
		p.MaxProjected = math.Max(p.MaxProjected, bg)

		minutes := float64(pt.Timestamp-nowMs) / float64(time.Minute/time.Millisecond)
		if low > 0 && p.LowInMinutes < 0 && bg <= low {
			p.LowInMinutes = minutes
		}
		if high > 0 && p.HighInMinutes < 0 && bg >= high {
			p.HighInMinutes = minutes
		}
	}

	return p
}
