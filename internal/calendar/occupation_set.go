package calendar

import (
	"slices"

	"cloud.google.com/go/civil"
)

// OccupationSet is an unordered collection of occupations.
type OccupationSet struct {
	entries []Occupation
}

func NewOccupationSet(entries ...Occupation) *OccupationSet {
	return &OccupationSet{entries: slices.Clone(entries)}
}

// Add appends occupations to the set.
func (s *OccupationSet) Add(entries ...Occupation) {
	s.entries = append(s.entries, entries...)
}

// All returns a copy of the entries in insertion order.
func (s *OccupationSet) All() []Occupation {
	return slices.Clone(s.entries)
}

func (s *OccupationSet) Len() int {
	return len(s.entries)
}

// Dates returns the distinct dates present in the set, in first-seen
// order.
func (s *OccupationSet) Dates() []civil.Date {
	seen := make(map[civil.Date]struct{}, len(s.entries))
	out := make([]civil.Date, 0)
	for _, o := range s.entries {
		if _, ok := seen[o.date]; ok {
			continue
		}
		seen[o.date] = struct{}{}
		out = append(out, o.date)
	}
	return out
}

func (s *OccupationSet) HasDate(d civil.Date) bool {
	for _, o := range s.entries {
		if o.date == d {
			return true
		}
	}
	return false
}

// ByDate returns the occupations on d, without normalizing them.
func (s *OccupationSet) ByDate(d civil.Date) *OccupationSet {
	out := make([]Occupation, 0)
	for _, o := range s.entries {
		if o.date == d {
			out = append(out, o)
		}
	}
	return &OccupationSet{entries: out}
}

// Normalize sorts the occupations on d and merges those that overlap or
// touch.
func (s *OccupationSet) Normalize(d civil.Date) *OccupationSet {
	sorted := s.ByDate(d).entries
	slices.SortStableFunc(sorted, Occupation.Compare)

	acc := make([]Occupation, 0, len(sorted))
	for _, o := range sorted {
		if len(acc) == 0 {
			acc = append(acc, o)
			continue
		}
		last := acc[len(acc)-1]
		if !last.timeRange.Overlaps(o.timeRange) {
			acc = append(acc, o)
			continue
		}
		acc[len(acc)-1] = NewOccupation(o.date, last.timeRange.Span(o.timeRange))
	}
	return &OccupationSet{entries: acc}
}

// NormalizeAll normalizes every date, earliest date first.
func (s *OccupationSet) NormalizeAll() *OccupationSet {
	dates := s.Dates()
	slices.SortFunc(dates, compareDates)

	out := make([]Occupation, 0, len(s.entries))
	for _, d := range dates {
		out = append(out, s.Normalize(d).entries...)
	}
	return &OccupationSet{entries: out}
}

// Bisect subtracts every occupation in the set from the availability.
//
// The set is normalized first and its occupations are applied in time
// order. Each one can only split the latest fragment: earlier fragments
// end before the previous occupation starts.
func (s *OccupationSet) Bisect(a Availability) *AvailabilitySet {
	fragments := []Availability{a}
	for _, o := range s.NormalizeAll().entries {
		if len(fragments) == 0 {
			break
		}
		tail := fragments[len(fragments)-1]
		fragments = append(fragments[:len(fragments)-1], o.Bisect(tail)...)
	}
	return &AvailabilitySet{entries: fragments}
}
