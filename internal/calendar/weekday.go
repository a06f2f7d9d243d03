package calendar

import (
	"errors"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidDayOfWeek is matched (via errors.Is) by InvalidDayOfWeekError.
var ErrInvalidDayOfWeek = errors.New("invalid day of the week")

// InvalidDayOfWeekError reports a weekday name outside the seven canonical
// lowercase names.
type InvalidDayOfWeekError struct {
	Name string
}

func (e *InvalidDayOfWeekError) Error() string {
	return e.Name + " is not a valid day of the week"
}

func (e *InvalidDayOfWeekError) Is(target error) bool {
	return target == ErrInvalidDayOfWeek
}

// Weekday numbers the days of the week Monday-first, independently of
// locale: Monday is 0 and Sunday is 6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// ParseWeekday accepts only the canonical lowercase names ("monday" ...
// "sunday").
func ParseWeekday(name string) (Weekday, error) {
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, &InvalidDayOfWeekError{Name: name}
}

// WeekdayOf derives the weekday of a calendar date.
func WeekdayOf(d civil.Date) Weekday {
	return FromTimeWeekday(d.In(time.UTC).Weekday())
}

// FromTimeWeekday converts the Sunday-first time.Weekday numbering.
func FromTimeWeekday(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return "weekday(" + strconv.Itoa(int(w)) + ")"
	}
	return weekdayNames[w]
}
