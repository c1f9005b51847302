// Package models contains data structures used throughout the application
package models

import (
	"errors"
	"math"
	"time"
)

// MgdlPerMmol converts between mmol/L and mg/dL
const MgdlPerMmol = 18.0182

// MaxGlucoseMgdl is the highest plausible glucose value
const MaxGlucoseMgdl = 600

// Glucose status labels
const (
	StatusLow    = "low"
	StatusNormal = "normal"
	StatusHigh   = "high"
)

var (
	errNegativeGlucose = errors.New("blood sugar cannot be negative")
	errGlucoseTooHigh  = errors.New("blood sugar value seems too high")
)

// BloodGlucoseReading is a measured or estimated glucose value in mg/dL
type BloodGlucoseReading struct {
	ID        string    `json:"id,omitempty"`
	Value     float64   `json:"value"`
	At        Timestamp `json:"timestamp"`
	Estimated bool      `json:"estimated,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// GlucoseEntry represents a single glucose reading from Nightscout
type GlucoseEntry struct {
	ID        string `json:"_id"`
	SGV       int    `json:"sgv"`  // Sensor glucose value in mg/dL
	Date      int64  `json:"date"` // Unix timestamp in milliseconds
	DateStr   string `json:"dateString"`
	Trend     int    `json:"trend"`     // Trend direction (1-7)
	Direction string `json:"direction"` // Trend direction as string
	Device    string `json:"device"`
	Type      string `json:"type"`
}

// Time returns the time of the glucose entry
func (g *GlucoseEntry) Time() time.Time {
	if g.Date > 0 {
		return time.UnixMilli(g.Date)
	}
	return ParseTime(g.DateStr)
}

// ValueMmolL returns the glucose value in mmol/L, rounded to one decimal
func (g *GlucoseEntry) ValueMmolL() float64 {
	return ToMmol(float64(g.SGV))
}

// Reading converts the entry into a core glucose reading
func (g *GlucoseEntry) Reading() BloodGlucoseReading {
	return BloodGlucoseReading{
		ID:     g.ID,
		Value:  float64(g.SGV),
		At:     At(g.Time()),
		Source: g.Device,
	}
}

// TrendArrow returns the Unicode arrow character for the trend
func (g *GlucoseEntry) TrendArrow() string {
	arrows := map[string]string{
		"DoubleUp":          "⇈",
		"SingleUp":          "↑",
		"FortyFiveUp":       "↗",
		"Flat":              "→",
		"FortyFiveDown":     "↘",
		"SingleDown":        "↓",
		"DoubleDown":        "⇊",
		"NOT COMPUTABLE":    "?",
		"RATE OUT OF RANGE": "⚠",
	}

	if arrow, ok := arrows[g.Direction]; ok {
		return arrow
	}

	numericArrows := []string{"-", "⇈", "↑", "↗", "→", "↘", "↓", "⇊"}
	if g.Trend > 0 && g.Trend < len(numericArrows) {
		return numericArrows[g.Trend]
	}
	return "-"
}

// ServerStatus represents the Nightscout server status
type ServerStatus struct {
	Status     string         `json:"status"`
	Name       string         `json:"name"`
	Version    string         `json:"version"`
	ServerTime string         `json:"serverTime"`
	APIEnabled bool           `json:"apiEnabled"`
	Settings   ServerSettings `json:"settings,omitempty"`
}

// ServerSettings contains the Nightscout server settings the monitor reads
type ServerSettings struct {
	Units      string     `json:"units"`
	Thresholds Thresholds `json:"thresholds,omitempty"`
}

// Thresholds contains glucose threshold settings
type Thresholds struct {
	BGHigh         int `json:"bgHigh"`
	BGLow          int `json:"bgLow"`
	BGTargetTop    int `json:"bgTargetTop"`
	BGTargetBottom int `json:"bgTargetBottom"`
}

// ToMmol converts mg/dL to mmol/L, rounded to one decimal
func ToMmol(mgdl float64) float64 {
	return math.Round(mgdl/MgdlPerMmol*10) / 10
}

// ToMgdl converts mmol/L to mg/dL, rounded to one decimal
func ToMgdl(mmol float64) float64 {
	return math.Round(mmol*MgdlPerMmol*10) / 10
}

// IsMmol reports whether a unit label denotes mmol/L
func IsMmol(unit string) bool {
	switch unit {
	case "mmol/L", "mmol/l", "mmol":
		return true
	}
	return false
}

// ValidateGlucose checks that a mg/dL value is within [0, 600]
func ValidateGlucose(mgdl float64) error {
	if math.IsNaN(mgdl) || mgdl < 0 {
		return errNegativeGlucose
	}
	if mgdl > MaxGlucoseMgdl {
		return errGlucoseTooHigh
	}
	return nil
}

// GlucoseStatusFor classifies a value relative to the target: low below 70%
// of target, high above 130%, otherwise normal
func GlucoseStatusFor(mgdl, target float64) string {
	switch {
	case mgdl < target*0.7:
		return StatusLow
	case mgdl > target*1.3:
		return StatusHigh
	default:
		return StatusNormal
	}
}
