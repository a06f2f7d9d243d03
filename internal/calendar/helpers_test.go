package calendar

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"slotcal/internal/timerange"
)

// 2016-09-26 and 2016-10-03 are Mondays, 2016-09-30 is a Friday.
var (
	sep26 = civil.Date{Year: 2016, Month: time.September, Day: 26}
	sep27 = civil.Date{Year: 2016, Month: time.September, Day: 27}
	sep29 = civil.Date{Year: 2016, Month: time.September, Day: 29}
	sep30 = civil.Date{Year: 2016, Month: time.September, Day: 30}
	oct3  = civil.Date{Year: 2016, Month: time.October, Day: 3}
)

func mustAvail(t *testing.T, scope, start, end string) Availability {
	t.Helper()
	s, err := ParseScope(scope)
	if err != nil {
		t.Fatalf("ParseScope(%q): %v", scope, err)
	}
	a, err := NewAvailability(s, mustRange(t, start, end))
	if err != nil {
		t.Fatalf("NewAvailability(%s): %v", s, err)
	}
	return a
}

func mustOcc(t *testing.T, d civil.Date, start, end string) Occupation {
	t.Helper()
	return NewOccupation(d, mustRange(t, start, end))
}

func mustRange(t *testing.T, start, end string) timerange.TimeRange {
	t.Helper()
	r, err := timerange.Parse(start, end)
	if err != nil {
		t.Fatalf("timerange.Parse(%q, %q): %v", start, end, err)
	}
	return r
}

func assertAvailabilities(t *testing.T, got, want []Availability) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d availabilities %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("availability %d = %s, want %s (got %v)", i, got[i], want[i], got)
		}
	}
}

func assertOccupations(t *testing.T, got, want []Occupation) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occupations %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occupation %d = %s, want %s (got %v)", i, got[i], want[i], got)
		}
	}
}
