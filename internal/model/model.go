package model

import "time"

// Busy is a single concrete instance of a busy calendar event, after
// recurrence expansion and timezone normalization. It is the hand-off
// between the ICS importer and the occupation builder.
type Busy struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies one occurrence of a recurring
	// event, derived from its local start time.
	InstanceKey string

	Summary string
	AllDay  bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
