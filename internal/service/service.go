// Package service owns the live calendar: it builds a Calendar from the
// configuration and the subscribed ICS feeds, rebuilds it on a cron
// schedule and answers slot queries against the current snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"

	"slotcal/internal/calendar"
	"slotcal/internal/config"
	"slotcal/internal/ics"
	appLog "slotcal/internal/log"
)

// Fetcher retrieves ICS bodies. *ics.Fetcher satisfies it.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// Status describes the last completed refresh.
type Status struct {
	RefreshedAt   time.Time `json:"refreshed_at"`
	Sources       int       `json:"sources"`
	FailedSources int       `json:"failed_sources"`
	BusyBlocks    int       `json:"busy_blocks"`
	Occupations   int       `json:"occupations"`
	Truncated     []string  `json:"truncated_uids,omitempty"`

	// ICSWindow is the range of dates ICS busy time was expanded over. It
	// is nil when no ICS source is configured.
	ICSWindow *Window `json:"ics_window,omitempty"`
}

// Window is an inclusive range of dates.
type Window struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Contains reports whether d lies within the window.
func (w Window) Contains(d civil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Option customizes a Service.
type Option func(*Service)

// WithNow replaces the wall clock, e.g. to pin "today" in tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service serves slot queries from an immutable Calendar snapshot. A
// refresh builds a new Calendar and swaps the pointer; snapshots are never
// mutated after the swap.
type Service struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher Fetcher
	now     func() time.Time

	mu     sync.RWMutex
	cal    *calendar.Calendar
	status Status

	refreshMu sync.Mutex
	cron      *cron.Cron
}

// New validates cfg and builds the first snapshot from the static entries.
// ICS feeds are only read by Refresh.
func New(cfg *config.Config, fetcher Fetcher, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("service: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("service: invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, loc: loc, fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	cal, err := s.staticCalendar()
	if err != nil {
		return nil, err
	}
	s.cal = cal
	s.status = Status{RefreshedAt: s.now(), Sources: len(s.sources())}
	return s, nil
}

// Location returns the configured timezone.
func (s *Service) Location() *time.Location { return s.loc }

// Today returns the current date in the configured timezone.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Status returns the outcome of the last refresh.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// AvailableSlotsOn returns the normalized availabilities for scope.
func (s *Service) AvailableSlotsOn(scope calendar.Scope) []calendar.Availability {
	return s.snapshot().AvailableSlotsOn(scope).All()
}

// FreeSlotsOn returns the free slots on d.
//
// ICS busy time is only known for the dates of the last refresh window
// (see InICSWindow). Outside it only the configured occupations are
// subtracted, so ICS meetings there show up as free.
func (s *Service) FreeSlotsOn(d civil.Date) []calendar.Availability {
	return s.snapshot().FreeSlotsOn(d).All()
}

// InICSWindow reports whether d's free slots account for every configured
// ICS source. It is always true without ICS sources and always false
// before the first refresh.
func (s *Service) InICSWindow(d civil.Date) bool {
	st := s.Status()
	if st.Sources == 0 {
		return true
	}
	return st.ICSWindow != nil && st.ICSWindow.Contains(d)
}

func (s *Service) snapshot() *calendar.Calendar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cal
}

// Refresh rebuilds the calendar from the static entries plus the busy time
// of every ICS source within [today, today+horizon_days]. Sources that fail
// to fetch or parse are logged and skipped. The snapshot is only replaced
// if ctx is still live once the new calendar is built.
func (s *Service) Refresh(ctx context.Context) (Status, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	started := s.now()
	cal, err := s.staticCalendar()
	if err != nil {
		return Status{}, err
	}

	sources := s.sources()
	status := Status{Sources: len(sources)}

	today := s.Today()
	if len(sources) > 0 {
		status.ICSWindow = &Window{Start: today, End: today.AddDays(s.cfg.HorizonDays)}
	}

	if len(sources) > 0 && s.fetcher != nil {
		results, fetchErrs := s.fetcher.FetchAll(ctx, sources)
		status.FailedSources = len(fetchErrs)

		events := make([]ics.ParsedEvent, 0)
		for _, res := range results {
			parsed, err := ics.ParseICS(res.Source, res.Body, s.loc)
			if err != nil {
				appLog.Error("refresh: parse failed for source", err, "id", res.Source.ID)
				status.FailedSources++
				continue
			}
			events = append(events, parsed...)
		}

		rangeStart := time.Date(today.Year, today.Month, today.Day, 0, 0, 0, 0, s.loc)
		rangeEnd := rangeStart.AddDate(0, 0, s.cfg.HorizonDays+1)

		expanded, err := ics.ExpandBusy(events, ics.ExpandConfig{
			Location:   s.loc,
			RangeStart: rangeStart,
			RangeEnd:   rangeEnd,
		})
		if err != nil {
			return Status{}, fmt.Errorf("refresh: %w", err)
		}

		occupations := ics.Occupations(expanded.Busy, s.loc)
		cal.Occupations().Add(occupations...)
		status.BusyBlocks = len(expanded.Busy)
		status.Truncated = expanded.TruncatedEvents
	}

	if err := ctx.Err(); err != nil {
		return Status{}, err
	}

	status.Occupations = cal.Occupations().Len()
	status.RefreshedAt = s.now()

	s.mu.Lock()
	s.cal = cal
	s.status = status
	s.mu.Unlock()

	appLog.Info("calendar refreshed",
		"sources", status.Sources,
		"failed_sources", status.FailedSources,
		"busy_blocks", status.BusyBlocks,
		"occupations", status.Occupations,
		"took", s.now().Sub(started).String(),
	)
	return status, nil
}

// Start schedules Refresh on the configured cron spec, evaluated in the
// configured timezone. It does not run an initial refresh.
func (s *Service) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() {
		if _, err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	s.cron = c
	appLog.Info("refresh scheduled", "spec", s.cfg.RefreshCron, "timezone", s.loc.String())
	return nil
}

// Stop stops the scheduler. The returned context is done once a running
// refresh has finished.
func (s *Service) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

func (s *Service) staticCalendar() (*calendar.Calendar, error) {
	avail, occ, err := s.cfg.Entries()
	if err != nil {
		return nil, err
	}
	cal := calendar.New()
	cal.Availabilities().Add(avail...)
	cal.Occupations().Add(occ...)
	return cal, nil
}

func (s *Service) sources() []ics.Source {
	out := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		out = append(out, ics.Source{ID: c.SourceID(), URL: c.URL})
	}
	return out
}
