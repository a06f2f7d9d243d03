package calendar

import (
	"cmp"
	"strings"

	"cloud.google.com/go/civil"
)

// Scope is the key an Availability is filed under. It has exactly two
// implementations, WeekdayScope and DateScope; both are comparable values
// and can be used as map keys.
type Scope interface {
	String() string
	isScope()
}

// WeekdayScope files an availability under a recurring day of the week.
type WeekdayScope struct {
	Weekday Weekday
}

// DateScope files an availability under a specific calendar date.
type DateScope struct {
	Date civil.Date
}

func (WeekdayScope) isScope() {}
func (DateScope) isScope()    {}

func (s WeekdayScope) String() string { return s.Weekday.String() }
func (s DateScope) String() string    { return s.Date.String() }

// Weekday is the day of the week the date falls on. It is only used to
// fall back to weekday availabilities; identity is the date itself.
func (s DateScope) Weekday() Weekday {
	return WeekdayOf(s.Date)
}

// ParseScope accepts either a canonical weekday name or an ISO date
// (YYYY-MM-DD).
func ParseScope(s string) (Scope, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return DateScope{Date: d}, nil
	}
	w, err := ParseWeekday(s)
	if err != nil {
		return nil, err
	}
	return WeekdayScope{Weekday: w}, nil
}

// resolvesTo reports whether an entry filed under s applies to date d.
func resolvesTo(s Scope, d civil.Date) bool {
	switch s := s.(type) {
	case DateScope:
		return s.Date == d
	case WeekdayScope:
		return s.Weekday == WeekdayOf(d)
	}
	return false
}

// compareScopes orders weekday scopes before date scopes, weekdays
// Monday-first and dates chronologically.
func compareScopes(a, b Scope) int {
	switch a := a.(type) {
	case WeekdayScope:
		b, ok := b.(WeekdayScope)
		if !ok {
			return -1
		}
		return cmp.Compare(a.Weekday, b.Weekday)
	case DateScope:
		b, ok := b.(DateScope)
		if !ok {
			return 1
		}
		return compareDates(a.Date, b.Date)
	}
	return 0
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
