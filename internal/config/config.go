package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"slotcal/internal/calendar"
	appLog "slotcal/internal/log"
	"slotcal/internal/timerange"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 14
	defaultCacheDir    = "./var/ics-cache"
)

// ICSConfig describes a single ICS busy-calendar subscription.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID labels the source in logs and in model.Busy.SourceID.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns the ID, falling back to the name and then the URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	}
	return c.URL
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// AvailabilityConfig lists the available slots for one weekday
// ("monday") or one date ("2016-09-30").
type AvailabilityConfig struct {
	Scope string   `yaml:"scope" json:"scope"`
	Slots []string `yaml:"slots" json:"slots"`
}

// OccupationConfig lists fixed busy slots on one date.
type OccupationConfig struct {
	Date  string   `yaml:"date" json:"date"`
	Slots []string `yaml:"slots" json:"slots"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone in which ICS events are turned into
	// day-local occupations and "today" is computed (e.g. "Europe/Rome").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a standard 5-field cron schedule (e.g. "*/15 * * * *")
	// for rebuilding the calendar from the ICS sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how many days ahead ICS events are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheDir holds the conditional-request cache of ICS bodies.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Availability []AvailabilityConfig `yaml:"availability" json:"availability"`
	Occupations  []OccupationConfig   `yaml:"occupations" json:"occupations"`

	// ICS is the list of subscribed busy calendars.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration: weekdays
// 09:00-13:00 and 14:00-18:00, no occupations, no ICS sources.
func DefaultConfig() *Config {
	workHours := []string{"09:00-13:00", "14:00-18:00"}
	avail := make([]AvailabilityConfig, 0, 5)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		avail = append(avail, AvailabilityConfig{Scope: day, Slots: workHours})
	}
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		RefreshCron:  defaultRefreshCron,
		HorizonDays:  defaultHorizonDays,
		CacheDir:     defaultCacheDir,
		LogLevel:     "info",
		Availability: avail,
		Occupations:  []OccupationConfig{},
		ICS:          []ICSConfig{},
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Availability == nil {
		c.Availability = []AvailabilityConfig{}
	}
	if c.Occupations == nil {
		c.Occupations = []OccupationConfig{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh: %w", err))
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	for i, src := range c.ICS {
		if strings.TrimSpace(src.URL) == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: url is empty", i))
		}
	}
	if _, _, err := c.Entries(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Entries converts the configured availabilities and occupations into
// calendar entries. Errors carry the position of the offending value.
func (c *Config) Entries() ([]calendar.Availability, []calendar.Occupation, error) {
	var errs []error

	avail := make([]calendar.Availability, 0)
	for i, ac := range c.Availability {
		scope, err := calendar.ParseScope(ac.Scope)
		if err != nil {
			errs = append(errs, fmt.Errorf("availability[%d].scope: %w", i, err))
			continue
		}
		for j, slot := range ac.Slots {
			r, err := timerange.ParseRange(slot)
			if err != nil {
				errs = append(errs, fmt.Errorf("availability[%d].slots[%d]: %w", i, j, err))
				continue
			}
			a, err := calendar.NewAvailability(scope, r)
			if err != nil {
				errs = append(errs, fmt.Errorf("availability[%d]: %w", i, err))
				continue
			}
			avail = append(avail, a)
		}
	}

	occ := make([]calendar.Occupation, 0)
	for i, oc := range c.Occupations {
		d, err := civil.ParseDate(strings.TrimSpace(oc.Date))
		if err != nil {
			errs = append(errs, fmt.Errorf("occupations[%d].date: %q is not a valid date", i, oc.Date))
			continue
		}
		for j, slot := range oc.Slots {
			r, err := timerange.ParseRange(slot)
			if err != nil {
				errs = append(errs, fmt.Errorf("occupations[%d].slots[%d]: %w", i, j, err))
				continue
			}
			occ = append(occ, calendar.NewOccupation(d, r))
		}
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return avail, occ, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".slotcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
