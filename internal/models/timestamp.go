// Package models contains data structures used throughout the application
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

// Timestamp is a point in time that decodes leniently from JSON and encodes
// as Unix milliseconds. Values that cannot be parsed decode to the zero time;
// callers substitute an explicit "now" for zero timestamps.
type Timestamp struct {
	time.Time
}

// At wraps a time.Time
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// FromMillis converts Unix milliseconds to a Timestamp
func FromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms)}
}

// Millis returns the Unix milliseconds of the timestamp, or 0 when unset
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// OrNow returns the timestamp, or now when it is unset
func (t Timestamp) OrNow(now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.Time
}

// MarshalJSON implements custom JSON marshaling
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// UnmarshalJSON accepts epoch milliseconds (number or numeric string) and
// any date string dateparse understands.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			t.Time = time.Time{}
			return nil
		}
		t.Time = time.UnixMilli(int64(ms))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTime(s)
	return nil
}

// ParseTime parses epoch milliseconds or a free-form date string.
// It returns the zero time when the input cannot be understood.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// NewID returns a fresh identifier for records that arrive without one
func NewID() string {
	return uuid.NewString()
}
