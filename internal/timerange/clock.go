package timerange

import (
	"fmt"
	"time"
)

// MinutesPerDay is the size of the clock domain. Valid clocks are
// 0 (00:00) through MinutesPerDay-1 (23:59).
const MinutesPerDay = 24 * 60

// Clock is a day-local time of day with minute granularity, stored as
// minutes since midnight. It carries no date and no timezone.
type Clock int

const (
	// Midnight is 00:00.
	Midnight Clock = 0
	// EndOfDay is 23:59, the last valid clock value.
	EndOfDay Clock = MinutesPerDay - 1
)

// NewClock builds a clock from an hour (0-23) and a minute (0-59).
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &InvalidIntervalError{Value: fmt.Sprintf("%02d:%02d", hour, minute), Reason: "is not a valid time"}
	}
	return Clock(hour*60 + minute), nil
}

// ParseClock parses a strict "HH:MM" value (hour 00-23, minute 00-59).
func ParseClock(s string) (Clock, error) {
	invalid := &InvalidIntervalError{Value: s, Reason: "is not a valid time"}
	if len(s) != 5 || s[2] != ':' {
		return 0, invalid
	}
	h, ok := twoDigits(s[0], s[1])
	if !ok {
		return 0, invalid
	}
	m, ok := twoDigits(s[3], s[4])
	if !ok {
		return 0, invalid
	}
	c, err := NewClock(h, m)
	if err != nil {
		return 0, invalid
	}
	return c, nil
}

// ClockOf returns the clock value of t in its own location. Seconds and
// below are truncated.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Valid reports whether c lies inside the clock domain.
func (c Clock) Valid() bool {
	return c >= Midnight && c <= EndOfDay
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as "HH:MM". Values outside the clock domain
// print as the raw minute count.
func (c Clock) String() string {
	if !c.Valid() {
		return fmt.Sprint(int(c))
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &InvalidIntervalError{Value: c.String(), Reason: "is not a valid time"}
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
