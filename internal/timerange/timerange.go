// Package timerange implements closed intervals of day-local clock values
// (e.g. 09:00-17:00) and the overlap/subtraction primitives the calendar
// is built on.
package timerange

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// TimeRange is an immutable closed interval [start, end] of clock values
// inside a single day. The zero value is the point interval 00:00-00:00.
type TimeRange struct {
	start Clock
	end   Clock
}

// New builds a range from two clocks.
//
// It fails with *InvalidIntervalError if either bound is outside the clock
// domain or if start is after end. Point ranges (start == end) are legal.
func New(start, end Clock) (TimeRange, error) {
	if !start.Valid() {
		return TimeRange{}, &InvalidIntervalError{Value: start.String(), Reason: "is not a valid time"}
	}
	if !end.Valid() {
		return TimeRange{}, &InvalidIntervalError{Value: end.String(), Reason: "is not a valid time"}
	}
	if start > end {
		return TimeRange{}, &InvalidIntervalError{Value: start.String(), Reason: "is greater than " + end.String()}
	}
	return TimeRange{start: start, end: end}, nil
}

// Parse builds a range from two "HH:MM" values.
func Parse(start, end string) (TimeRange, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeRange{}, err
	}
	return New(s, e)
}

// ParseRange parses the textual form "HH:MM-HH:MM".
func ParseRange(s string) (TimeRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, &InvalidIntervalError{Value: s, Reason: "is not a valid time range"}
	}
	return Parse(strings.TrimSpace(start), strings.TrimSpace(end))
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(start, end string) TimeRange {
	r, err := Parse(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r TimeRange) Start() Clock { return r.start }
func (r TimeRange) End() Clock   { return r.end }

// Duration is the distance between the two bounds.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.end-r.start) * time.Minute
}

// Overlaps reports whether the two ranges share at least one moment.
// Touching endpoints count as overlapping.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start <= other.end && r.end >= other.start
}

// Covers reports whether r contains every moment of other.
func (r TimeRange) Covers(other TimeRange) bool {
	return r.start <= other.start && r.end >= other.end
}

// Span returns the smallest range containing both r and other.
func (r TimeRange) Span(other TimeRange) TimeRange {
	return TimeRange{start: min(r.start, other.start), end: max(r.end, other.end)}
}

// Bisect carves r out of other and returns what remains of other: the
// original range when they do not overlap, nothing when r covers it, and
// otherwise one or two fragments.
//
// Fragments are never dropped for having zero width: an occupier that
// ends exactly where other ends, but starts inside it, yields a trailing
// point range.
func (r TimeRange) Bisect(other TimeRange) []TimeRange {
	if !r.Overlaps(other) {
		return []TimeRange{other}
	}
	if r.Covers(other) {
		return []TimeRange{}
	}

	switch {
	case r.start <= other.start && r.end <= other.end:
		return []TimeRange{{start: r.end, end: other.end}}
	case r.start >= other.start && r.end <= other.end:
		return []TimeRange{
			{start: other.start, end: r.start},
			{start: r.end, end: other.end},
		}
	default:
		// r.start > other.start && r.end > other.end
		return []TimeRange{{start: other.start, end: r.start}}
	}
}

// Compare orders ranges by start, then by end.
func (r TimeRange) Compare(other TimeRange) int {
	switch {
	case r.start < other.start:
		return -1
	case r.start > other.start:
		return 1
	case r.end < other.end:
		return -1
	case r.end > other.end:
		return 1
	}
	return 0
}

// WithDate projects the range onto a calendar date in loc.
func (r TimeRange) WithDate(d civil.Date, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	midnight := d.In(loc)
	at := func(c Clock) time.Time {
		return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	}
	return at(r.start), at(r.end)
}

// String formats the range as "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return r.start.String() + "-" + r.end.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TimeRange) UnmarshalText(b []byte) error {
	v, err := ParseRange(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
