package ics

import (
	"time"

	"cloud.google.com/go/civil"

	"slotcal/internal/calendar"
	appLog "slotcal/internal/log"
	"slotcal/internal/model"
	"slotcal/internal/timerange"
)

// Occupations converts busy blocks into day-local occupations in loc.
//
// A block spanning several days yields one occupation per day: the first
// day runs from the start clock, middle days are whole days (00:00-23:59)
// and the last day runs to the end clock. A block ending exactly at
// midnight closes the previous day at 23:59. Zero-length blocks become a
// point occupation. Blocks ending before they start are skipped.
func Occupations(busy []model.Busy, loc *time.Location) []calendar.Occupation {
	if loc == nil {
		loc = time.Local
	}

	out := make([]calendar.Occupation, 0, len(busy))
	for _, b := range busy {
		start, end := b.Start.In(loc), b.End.In(loc)
		if end.Before(start) {
			appLog.Debug("skipping inverted busy block", "uid", b.UID, "start", start, "end", end)
			continue
		}

		firstDay, startClock := civil.DateOf(start), timerange.ClockOf(start)
		lastDay, endClock := civil.DateOf(end), timerange.ClockOf(end)
		if end.After(start) && isMidnight(end) {
			lastDay = lastDay.AddDays(-1)
			endClock = timerange.EndOfDay
		}

		for d := firstDay; !d.After(lastDay); d = d.AddDays(1) {
			from, to := timerange.Midnight, timerange.EndOfDay
			if d == firstDay {
				from = startClock
			}
			if d == lastDay {
				to = endClock
			}
			r, err := timerange.New(from, to)
			if err != nil {
				continue
			}
			out = append(out, calendar.NewOccupation(d, r))
		}
	}
	return out
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
