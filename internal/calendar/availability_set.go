package calendar

import (
	"slices"
)

// AvailabilitySet is an unordered collection of availabilities. Duplicates
// and overlaps are allowed; Normalize resolves them into a new set.
type AvailabilitySet struct {
	entries []Availability
}

func NewAvailabilitySet(entries ...Availability) *AvailabilitySet {
	return &AvailabilitySet{entries: slices.Clone(entries)}
}

// Add appends availabilities to the set.
func (s *AvailabilitySet) Add(entries ...Availability) {
	s.entries = append(s.entries, entries...)
}

// All returns a copy of the entries in insertion order.
func (s *AvailabilitySet) All() []Availability {
	return slices.Clone(s.entries)
}

func (s *AvailabilitySet) Len() int {
	return len(s.entries)
}

// Scopes returns the distinct scopes present in the set, in first-seen
// order.
func (s *AvailabilitySet) Scopes() []Scope {
	seen := make(map[Scope]struct{}, len(s.entries))
	out := make([]Scope, 0)
	for _, a := range s.entries {
		if _, ok := seen[a.scope]; ok {
			continue
		}
		seen[a.scope] = struct{}{}
		out = append(out, a.scope)
	}
	return out
}

// HasScope reports whether at least one entry is filed under scope.
func (s *AvailabilitySet) HasScope(scope Scope) bool {
	for _, a := range s.entries {
		if a.scope == scope {
			return true
		}
	}
	return false
}

// ByScope returns the entries filed exactly under scope, without
// normalizing them. A date scope does not match weekday entries.
func (s *AvailabilitySet) ByScope(scope Scope) *AvailabilitySet {
	out := make([]Availability, 0)
	for _, a := range s.entries {
		if a.scope == scope {
			out = append(out, a)
		}
	}
	return &AvailabilitySet{entries: out}
}

// Normalize sorts the entries filed under scope and merges those that
// overlap or touch.
func (s *AvailabilitySet) Normalize(scope Scope) *AvailabilitySet {
	sorted := s.ByScope(scope).entries
	slices.SortStableFunc(sorted, Availability.Compare)
	return &AvailabilitySet{entries: mergeAvailabilities(sorted)}
}

// NormalizeAll normalizes every scope and returns the result in
// Availability order.
func (s *AvailabilitySet) NormalizeAll() *AvailabilitySet {
	out := make([]Availability, 0, len(s.entries))
	for _, scope := range s.Scopes() {
		out = append(out, s.Normalize(scope).entries...)
	}
	slices.SortStableFunc(out, Availability.Compare)
	return &AvailabilitySet{entries: out}
}

// mergeAvailabilities folds a sorted slice, widening the last accumulated
// entry while the next one overlaps it.
func mergeAvailabilities(sorted []Availability) []Availability {
	acc := make([]Availability, 0, len(sorted))
	for _, a := range sorted {
		if len(acc) == 0 {
			acc = append(acc, a)
			continue
		}
		last := acc[len(acc)-1]
		if !last.timeRange.Overlaps(a.timeRange) {
			acc = append(acc, a)
			continue
		}
		acc[len(acc)-1] = Availability{scope: a.scope, timeRange: last.timeRange.Span(a.timeRange)}
	}
	return acc
}
