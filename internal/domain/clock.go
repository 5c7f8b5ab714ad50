package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Clock is a time of day with minute resolution, counted from midnight.
// All planning happens within a single service day.
type Clock int

const (
	// Drivers leave the hub no earlier than this.
	DayStart Clock = 8 * 60
	// Sentinel deadline for parcels without a real one, so that deadline
	// comparisons are always well-ordered.
	EndOfDay Clock = 23*60 + 59
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04", "15:04:05"}

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock advanced by whole minutes.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Kitchen formats the clock the way the input files write it ("9:05 AM").
func (c Clock) Kitchen() string {
	return c.On(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)).Format("3:04 PM")
}

// On anchors the clock to a calendar day.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClock accepts "10:30 AM", "9:05am", "14:20" and "14:20:00".
func ParseClock(s string) (Clock, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "" {
		return 0, fmt.Errorf("parse clock: empty value: %w", ErrValidation)
	}

	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, norm)
		if err == nil {
			return NewClock(t.Hour(), t.Minute()), nil
		}
	}

	return 0, fmt.Errorf("parse clock: unrecognised time %q: %w", s, ErrValidation)
}

// ParseDeadline maps "EOD", "None" and empty values to EndOfDay.
func ParseDeadline(s string) (Clock, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	switch norm {
	case "", "NONE", "EOD":
		return EndOfDay, nil
	}

	c, err := ParseClock(norm)
	if err != nil {
		return 0, fmt.Errorf("parse deadline: %w", err)
	}
	return c, nil
}

func MaxClock(a, b Clock) Clock {
	if a > b {
		return a
	}
	return b
}

func MinClock(a, b Clock) Clock {
	if a < b {
		return a
	}
	return b
}

// TravelMinutes converts a leg distance (miles) at a speed (mph) into whole
// minutes, rounded to the nearest minute. It reports false for legs that can
// never be driven: an infinite distance or a non-positive speed.
func TravelMinutes(distance, speedMPH float64) (int, bool) {
	if math.IsInf(distance, 0) || math.IsNaN(distance) || speedMPH <= 0 {
		return 0, false
	}
	return int(math.Round(distance / speedMPH * 60)), true
}
