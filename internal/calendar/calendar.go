// Package calendar computes available and free time slots from weekday or
// date availabilities and dated occupations.
//
// None of the types here are safe for concurrent mutation: a Calendar's
// sets must not be appended to while a query runs.
package calendar

import (
	"cloud.google.com/go/civil"
)

// Calendar keeps track of availabilities and occupations.
type Calendar struct {
	availabilities *AvailabilitySet
	occupations    *OccupationSet
}

// New returns an empty calendar.
func New() *Calendar {
	return &Calendar{
		availabilities: NewAvailabilitySet(),
		occupations:    NewOccupationSet(),
	}
}

// Availabilities returns the calendar's own availability set; appending
// to it changes the calendar.
func (c *Calendar) Availabilities() *AvailabilitySet { return c.availabilities }

// Occupations returns the calendar's own occupation set.
func (c *Calendar) Occupations() *OccupationSet { return c.occupations }

// AvailableSlotsOn returns the normalized availabilities for a weekday or
// a date, ignoring occupations.
//
// A date with no availability of its own falls back to the availabilities
// of its weekday, which are returned still filed under the weekday.
func (c *Calendar) AvailableSlotsOn(scope Scope) *AvailabilitySet {
	if ds, ok := scope.(DateScope); ok && !c.availabilities.HasScope(ds) {
		ws := WeekdayScope{Weekday: ds.Weekday()}
		if c.availabilities.HasScope(ws) {
			return c.availabilities.Normalize(ws)
		}
	}
	return c.availabilities.Normalize(scope)
}

// FreeSlotsOn returns the available slots on d with that day's
// occupations subtracted. Every returned slot is filed under d.
func (c *Calendar) FreeSlotsOn(d civil.Date) *AvailabilitySet {
	occupations := c.occupations.Normalize(d)

	free := NewAvailabilitySet()
	for _, a := range c.AvailableSlotsOn(DateScope{Date: d}).entries {
		free.Add(occupations.Bisect(a.On(d)).entries...)
	}
	return free
}
