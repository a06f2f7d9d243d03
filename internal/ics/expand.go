package ics

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "slotcal/internal/log"
	"slotcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// Location is the timezone all busy blocks are converted to. If nil,
	// time.Local is used.
	Location *time.Location

	// RangeStart / RangeEnd define the inclusive window. Blocks that
	// overlap the window at all are kept.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps the expansion of a single RRULE. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the expanded busy blocks, sorted by start time.
type ExpandResult struct {
	Busy []model.Busy
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandBusy turns parsed events into concrete busy blocks within the
// window. It handles single events, RRULE recurrences with EXDATE,
// RECURRENCE-ID overrides (moved or cancelled instances) and all-day events.
func ExpandBusy(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	uids := make([]string, 0)
	seen := make(map[string]bool)
	for _, ev := range events {
		if !seen[ev.UID] {
			seen[ev.UID] = true
			uids = append(uids, ev.UID)
		}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	busy := make([]model.Busy, 0)
	for _, uid := range uids {
		ov := overridesByUID[uid]
		used := make([]bool, len(ov))
		truncated := false

		for _, ev := range baseByUID[uid] {
			blocks, hitCap := expandEvent(ev, ov, used, cfg)
			truncated = truncated || hitCap
			busy = append(busy, blocks...)
		}

		// Overrides that matched no generated instance (e.g. an instance
		// moved into the window from outside it) still block their own time.
		for i, o := range ov {
			if used[i] || o.Cancelled {
				continue
			}
			if overlaps(o.Start, o.End, cfg.RangeStart, cfg.RangeEnd) {
				busy = append(busy, makeBusy(o, o.Start, o.End, cfg.Location))
			}
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	slices.SortStableFunc(busy, func(a, b model.Busy) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	result.Busy = busy
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, used []bool, cfg ExpandConfig) ([]model.Busy, bool) {
	if ev.RawRRule == "" {
		return expandInstances(ev, []time.Time{ev.Start}, overrides, used, cfg), false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Start the search one event-length early so that instances already
	// running at RangeStart are included.
	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.Add(-ev.End.Sub(ev.Start)).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}
	return expandInstances(ev, starts, overrides, used, cfg), hitCap
}

// expandInstances builds one busy block per instance start, applying
// overrides and dropping instances outside the window.
func expandInstances(ev ParsedEvent, starts []time.Time, overrides []ParsedEvent, used []bool, cfg ExpandConfig) []model.Busy {
	out := make([]model.Busy, 0, len(starts))
	days := daysBetween(ev.Start, ev.End)

	for _, start := range starts {
		var end time.Time
		if ev.AllDay {
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			end = start.AddDate(0, 0, max(days, 1))
		} else {
			end = start.Add(ev.End.Sub(ev.Start))
		}

		inst := ev
		if i, ok := findOverride(overrides, start); ok {
			used[i] = true
			if overrides[i].Cancelled {
				continue
			}
			inst = overrides[i]
			start, end = inst.Start, inst.End
		}

		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeBusy(inst, start, end, cfg.Location))
	}
	return out
}

// findOverride returns the index of the override whose RECURRENCE-ID is
// the given instance start.
func findOverride(overrides []ParsedEvent, start time.Time) (int, bool) {
	for i, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return i, true
		}
	}
	return -1, false
}

func makeBusy(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Busy {
	startLocal := start.In(loc)
	return model.Busy{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: startLocal.Format(time.RFC3339),
		Summary:     ev.Summary,
		AllDay:      ev.AllDay,
		Start:       startLocal,
		End:         end.In(loc),
	}
}

// daysBetween counts calendar days from a to b in a's location.
func daysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
