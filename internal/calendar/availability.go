package calendar

import (
	"cmp"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"slotcal/internal/timerange"
)

// Availability is a slot of time on a weekday or on a specific date when
// the calendar owner is available. It is an immutable value.
type Availability struct {
	scope     Scope
	timeRange timerange.TimeRange
}

// ErrMissingScope is returned by NewAvailability for a nil scope.
var ErrMissingScope = errors.New("availability scope is missing")

// NewAvailability builds an availability for any scope. A weekday outside
// Monday..Sunday fails with *InvalidDayOfWeekError and an impossible date
// with an error naming it.
func NewAvailability(scope Scope, r timerange.TimeRange) (Availability, error) {
	switch s := scope.(type) {
	case nil:
		return Availability{}, ErrMissingScope
	case WeekdayScope:
		if !s.Weekday.Valid() {
			return Availability{}, &InvalidDayOfWeekError{Name: s.Weekday.String()}
		}
	case DateScope:
		if !s.Date.IsValid() {
			return Availability{}, fmt.Errorf("%s is not a valid date", s.Date)
		}
	}
	return Availability{scope: scope, timeRange: r}, nil
}

// NewWeekdayAvailability builds a weekday availability from a weekday
// name, failing with *InvalidDayOfWeekError for a non-canonical name.
func NewWeekdayAvailability(name string, r timerange.TimeRange) (Availability, error) {
	w, err := ParseWeekday(name)
	if err != nil {
		return Availability{}, err
	}
	return Availability{scope: WeekdayScope{Weekday: w}, timeRange: r}, nil
}

// NewDateAvailability builds an availability for a single date.
func NewDateAvailability(d civil.Date, r timerange.TimeRange) Availability {
	return Availability{scope: DateScope{Date: d}, timeRange: r}
}

func (a Availability) Scope() Scope                   { return a.scope }
func (a Availability) TimeRange() timerange.TimeRange { return a.timeRange }

// Date returns the availability's date, if it is scoped to one.
func (a Availability) Date() (civil.Date, bool) {
	if s, ok := a.scope.(DateScope); ok {
		return s.Date, true
	}
	return civil.Date{}, false
}

// Weekday returns the day of the week of the availability, derived from
// the date for date-scoped entries.
func (a Availability) Weekday() Weekday {
	if s, ok := a.scope.(DateScope); ok {
		return s.Weekday()
	}
	return a.scope.(WeekdayScope).Weekday
}

// On returns the same time range scoped to date d.
func (a Availability) On(d civil.Date) Availability {
	return Availability{scope: DateScope{Date: d}, timeRange: a.timeRange}
}

// Equal reports whether both availabilities have the same scope and time
// range.
func (a Availability) Equal(other Availability) bool {
	return a == other
}

// Compare orders weekday availabilities before dated ones. Within the same
// weekday or date, availabilities are ordered by start time.
func (a Availability) Compare(other Availability) int {
	if c := compareScopes(a.scope, other.scope); c != 0 {
		return c
	}
	return cmp.Compare(a.timeRange.Start(), other.timeRange.Start())
}

func (a Availability) String() string {
	return a.scope.String() + " " + a.timeRange.String()
}
