package calendar

import (
	"cmp"
	"time"

	"cloud.google.com/go/civil"

	"slotcal/internal/timerange"
)

// Occupation is a slot of time on a given date when the calendar owner is
// not available.
type Occupation struct {
	date      civil.Date
	timeRange timerange.TimeRange
}

func NewOccupation(d civil.Date, r timerange.TimeRange) Occupation {
	return Occupation{date: d, timeRange: r}
}

func (o Occupation) Date() civil.Date               { return o.date }
func (o Occupation) TimeRange() timerange.TimeRange { return o.timeRange }

// AbsoluteRange projects the occupation onto its date in loc.
func (o Occupation) AbsoluteRange(loc *time.Location) (time.Time, time.Time) {
	return o.timeRange.WithDate(o.date, loc)
}

// Overlaps reports whether the occupation shares at least one moment with
// the availability. Weekday availabilities are read as falling on the
// occupation's date when the weekdays match; anything filed under another
// date never overlaps.
func (o Occupation) Overlaps(a Availability) bool {
	if !resolvesTo(a.scope, o.date) {
		return false
	}
	return o.timeRange.Overlaps(a.timeRange)
}

// Covers reports whether every moment of the availability is occupied.
func (o Occupation) Covers(a Availability) bool {
	if !resolvesTo(a.scope, o.date) {
		return false
	}
	return o.timeRange.Covers(a.timeRange)
}

// Bisect removes the occupied time from the availability.
//
// A covered availability yields nothing and a non-overlapping one is
// returned unchanged. Otherwise the remaining one or two fragments are
// returned scoped to the occupation's date.
func (o Occupation) Bisect(a Availability) []Availability {
	if o.Covers(a) {
		return []Availability{}
	}
	if !o.Overlaps(a) {
		return []Availability{a}
	}

	ranges := o.timeRange.Bisect(a.timeRange)
	out := make([]Availability, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, NewDateAvailability(o.date, r))
	}
	return out
}

func (o Occupation) Equal(other Occupation) bool {
	return o == other
}

// Compare orders occupations by date, then by start time.
func (o Occupation) Compare(other Occupation) int {
	if c := compareDates(o.date, other.date); c != 0 {
		return c
	}
	return cmp.Compare(o.timeRange.Start(), other.timeRange.Start())
}

func (o Occupation) String() string {
	return o.date.String() + " " + o.timeRange.String()
}
