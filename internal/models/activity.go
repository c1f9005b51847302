// Package models contains data structures used throughout the application
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ActivityLevel is a signed intensity from -2 (very low) to +2 (very high)
type ActivityLevel int

const (
	ActivityVeryLow  ActivityLevel = -2 // sleep
	ActivityLow      ActivityLevel = -1
	ActivityNormal   ActivityLevel = 0
	ActivityHigh     ActivityLevel = 1
	ActivityVeryHigh ActivityLevel = 2
)

// Valid reports whether the level is in [-2, 2]
func (l ActivityLevel) Valid() bool {
	return l >= ActivityVeryLow && l <= ActivityVeryHigh
}

// Label returns a human readable description of the level
func (l ActivityLevel) Label() string {
	switch l {
	case ActivityVeryLow:
		return "Sleep"
	case ActivityLow:
		return "Very Low Activity"
	case ActivityNormal:
		return "Normal Activity"
	case ActivityHigh:
		return "High Activity"
	case ActivityVeryHigh:
		return "Vigorous Activity"
	default:
		return "Unknown Activity"
	}
}

// Hours is a duration in decimal hours. It decodes from a JSON number or an "HH:MM" string.
type Hours float64

// UnmarshalJSON implements custom JSON unmarshaling
func (h *Hours) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseDuration(s)
		if err != nil {
			return err
		}
		*h = Hours(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*h = Hours(v)
	return nil
}

// ParseDuration parses "HH:MM" or a decimal number of hours
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	hh, mm, found := strings.Cut(s, ":")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("invalid duration %q: negative", s)
		}
		return v, nil
	}

	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid duration hours in %q", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes >= 60 {
		return 0, fmt.Errorf("invalid duration minutes in %q", s)
	}
	return float64(hours) + float64(minutes)/60, nil
}

// FormatDuration renders decimal hours as "HH:MM"
func FormatDuration(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	total := int(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Activity is a period of physical activity
type Activity struct {
	Level         ActivityLevel `json:"level"`
	DurationHours Hours         `json:"duration"`
	Start         Timestamp     `json:"startTime"`
	End           Timestamp     `json:"endTime"`
}

// Hours returns the explicit duration, or the span between start and end
// when no duration was given
func (a Activity) Hours() float64 {
	if a.DurationHours > 0 {
		return float64(a.DurationHours)
	}
	if !a.Start.IsZero() && !a.End.IsZero() && a.End.After(a.Start.Time) {
		return a.End.Sub(a.Start.Time).Hours()
	}
	return 0
}

// Span returns the start and end of the activity, deriving the end from
// the duration when it is missing
func (a Activity) Span() (time.Time, time.Time) {
	start := a.Start.Time
	end := a.End.Time
	if end.IsZero() && !start.IsZero() {
		end = start.Add(time.Duration(a.Hours() * float64(time.Hour)))
	}
	return start, end
}
