// Package position defines the normalized time-stamped aircraft position
// and the month and blob-key helpers used by the position store in
// internal/trace.
package position

import (
	"encoding/json"
	"fmt"
	"time"
)

// Position is a single normalized, time-stamped aircraft position. Altitude
// is nil when the aircraft is grounded.
type Position struct {
	ICAO      string    `json:"-"`
	Datetime  time.Time `json:"datetime"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
}

// Flying reports whether the position has an altitude reading.
func (p Position) Flying() bool { return p.Altitude != nil }

// Grounded reports whether the position has no altitude reading.
func (p Position) Grounded() bool { return p.Altitude == nil }

// Validate enforces the Position invariant of spec.md §3.
func (p Position) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("invalid latitude %f", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("invalid longitude %f", p.Longitude)
	}
	return nil
}

// MarshalJSON implements the Position JSON schema from spec.md §6.
func (p Position) MarshalJSON() ([]byte, error) {
	type alias struct {
		Datetime  string   `json:"datetime"`
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Altitude  *float64 `json:"altitude,omitempty"`
	}
	return json.Marshal(alias{
		Datetime:  p.Datetime.UTC().Format(time.RFC3339),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  p.Altitude,
	})
}

// UnmarshalJSON implements the Position JSON schema from spec.md §6.
func (p *Position) UnmarshalJSON(data []byte) error {
	var alias struct {
		Datetime  string   `json:"datetime"`
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Altitude  *float64 `json:"altitude,omitempty"`
	}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, alias.Datetime)
	if err != nil {
		return fmt.Errorf("invalid datetime %q: %w", alias.Datetime, err)
	}
	p.Datetime = t
	p.Latitude = alias.Latitude
	p.Longitude = alias.Longitude
	p.Altitude = alias.Altitude
	return nil
}

// MonthKey formats a month as "YYYY-MM", the form used throughout the hive
// partition layout (spec.md §6).
func MonthKey(month time.Time) string {
	return month.Format("2006-01")
}

// ParseMonthKey parses the "YYYY-MM" form back into the first day of that
// month, UTC.
func ParseMonthKey(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// FirstOfMonth normalizes any time to the first day of its month, UTC,
// truncating time-of-day.
func FirstOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first day of the month following month.
func NextMonth(month time.Time) time.Time {
	return FirstOfMonth(month).AddDate(0, 1, 0)
}

// DailyTraceKey is the hive-style key for a raw provider payload:
// globe_history/YYYY-MM-DD/trace_full_<icao>.json
func DailyTraceKey(icao string, day time.Time) string {
	return fmt.Sprintf("globe_history/%s/trace_full_%s.json", day.UTC().Format("2006-01-02"), icao)
}

// MonthPositionsKey is the hive-style key for the persisted sorted monthly
// Position list: position/icao_number=<icao>/month=YYYY-MM/data.json
func MonthPositionsKey(icao string, month time.Time) string {
	return fmt.Sprintf("position/icao_number=%s/month=%s/data.json", icao, MonthKey(month))
}
