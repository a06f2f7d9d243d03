package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slotcal/internal/calendar"
	"slotcal/internal/timerange"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Timezone != "UTC" || cfg.HorizonDays != 14 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading the written config failed: %v", err)
	}
	if len(again.Availability) != 5 || again.Availability[0].Scope != "monday" {
		t.Fatalf("unexpected reloaded availability: %+v", again.Availability)
	}
	if err := again.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Europe/Rome
horizon_days: 7
availability:
  - scope: monday
    slots: ["09:00-11:00", "11:00-13:00"]
  - scope: 2016-09-30
    slots: ["09:00-17:00"]
occupations:
  - date: 2016-09-26
    slots: ["10:00-12:00"]
ics:
  - id: work
    url: https://example.com/work.ics
basic_auth:
  username: me
  password: secret
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Timezone != "Europe/Rome" || cfg.HorizonDays != 7 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RefreshCron != "*/15 * * * *" || cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("expected missing fields to be normalized, got %+v", cfg)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "me" {
		t.Fatalf("unexpected basic auth: %+v", cfg.BasicAuth)
	}
	if cfg.ICS[0].SourceID() != "work" {
		t.Fatalf("unexpected source id %q", cfg.ICS[0].SourceID())
	}

	avail, occ, err := cfg.Entries()
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}
	if len(avail) != 3 || len(occ) != 1 {
		t.Fatalf("expected 3 availabilities and 1 occupation, got %d and %d", len(avail), len(occ))
	}
	if avail[0].Scope() != (calendar.WeekdayScope{Weekday: calendar.Monday}) {
		t.Fatalf("unexpected scope %v", avail[0].Scope())
	}
	if _, ok := avail[2].Date(); !ok {
		t.Fatalf("expected the third availability to be dated")
	}
	if occ[0].TimeRange() != timerange.MustParse("10:00", "12:00") {
		t.Fatalf("unexpected occupation %s", occ[0])
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("availability: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestEntries_ReportsPositions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Availability = []AvailabilityConfig{
		{Scope: "funday", Slots: []string{"09:00-10:00"}},
		{Scope: "monday", Slots: []string{"09:00-10:00", "18:00-09:00"}},
	}
	cfg.Occupations = []OccupationConfig{
		{Date: "2016-02-30", Slots: []string{"09:00-10:00"}},
		{Date: "2016-09-26", Slots: []string{"25:00-26:00"}},
	}

	_, _, err := cfg.Entries()
	if err == nil {
		t.Fatalf("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"availability[0].scope: funday is not a valid day of the week",
		"availability[1].slots[1]: 18:00 is greater than 09:00",
		`occupations[0].date: "2016-02-30" is not a valid date`,
		"occupations[1].slots[0]: 25:00 is not a valid time",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if !errors.Is(err, calendar.ErrInvalidDayOfWeek) || !errors.Is(err, timerange.ErrInvalidInterval) {
		t.Fatalf("expected joined error to wrap the core error types: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.RefreshCron = "every minute"
	cfg.LogLevel = "chatty"
	cfg.ICS = []ICSConfig{{ID: "empty"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"timezone:", "refresh:", "log_level:", "ics[0]: url is empty"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestSave_RequiresPathAndConfig(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
