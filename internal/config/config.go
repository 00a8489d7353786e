package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"tzpick/internal/constraint"
	"tzpick/internal/model"
	"tzpick/internal/zone"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultWeekStart   = "monday"
	defaultRefreshCron = "*/30 * * * *"
	defaultHorizonDays = 366
	defaultLogLevel    = "info"
)

// FeedConfig describes a single ICS calendar whose events become blackout days.
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// ConstraintsConfig is the YAML form of the picker constraints.
type ConstraintsConfig struct {
	// MinDate / MaxDate are inclusive calendar days ("YYYY-MM-DD").
	MinDate string `yaml:"min_date,omitempty" json:"min_date,omitempty"`
	MaxDate string `yaml:"max_date,omitempty" json:"max_date,omitempty"`

	// BlackoutDates lists individual excluded days.
	BlackoutDates []string `yaml:"blackout_dates,omitempty" json:"blackout_dates,omitempty"`

	// BlackoutRules are RRULE strings (RFC 5545), optionally preceded by a
	// DTSTART line, e.g. "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25".
	BlackoutRules []string `yaml:"blackout_rules,omitempty" json:"blackout_rules,omitempty"`

	// BlackoutFeeds are ICS calendars (holidays, closures) whose events are
	// excluded days.
	BlackoutFeeds []FeedConfig `yaml:"blackout_feeds,omitempty" json:"blackout_feeds,omitempty"`

	// MinDuration / MaxDuration are Go duration strings ("30m", "2h").
	MinDuration string `yaml:"min_duration,omitempty" json:"min_duration,omitempty"`
	MaxDuration string `yaml:"max_duration,omitempty" json:"max_duration,omitempty"`

	// DisabledDays are weekday names ("sunday") or indices 0-6.
	DisabledDays []string `yaml:"disabled_days,omitempty" json:"disabled_days,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the default zone for presets and ranges without a zone.
	// It must be one of the cataloged identifiers.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the first column of the calendar grid, served with the
	// constraints. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// used for periodic blackout feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays bounds how far ahead (and behind) recurring blackouts are
	// expanded into concrete days.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Constraints ConstraintsConfig `yaml:"constraints" json:"constraints"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		WeekStart:   defaultWeekStart,
		RefreshCron: defaultRefreshCron,
		HorizonDays: defaultHorizonDays,
		LogLevel:    defaultLogLevel,
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	for i := range c.Constraints.BlackoutFeeds {
		f := &c.Constraints.BlackoutFeeds[i]
		if f.ID == "" {
			if f.Name != "" {
				f.ID = f.Name
			} else {
				f.ID = f.URL
			}
		}
	}
}

// Validate reports the first semantic problem in the configuration.
func (c *Config) Validate() error {
	if !zone.IsSupported(c.Timezone) {
		return fmt.Errorf("config: timezone: %w", &zone.UnknownTimezoneError{Zone: c.Timezone})
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	for _, f := range c.Constraints.BlackoutFeeds {
		if f.URL == "" {
			return fmt.Errorf("config: blackout feed %q has no url", f.ID)
		}
	}
	if _, err := c.Constraints.Build(); err != nil {
		return err
	}
	return nil
}

// PickerConstraints returns the static constraint set. Rules and feeds are
// expanded separately by internal/blackout.
func (c *Config) PickerConstraints() (constraint.Constraints, error) {
	return c.Constraints.Build()
}

// Build parses the YAML strings into a constraint set.
func (cc ConstraintsConfig) Build() (constraint.Constraints, error) {
	var out constraint.Constraints

	if cc.MinDate != "" {
		d, err := model.ParseDate(cc.MinDate)
		if err != nil {
			return out, fmt.Errorf("config: min_date: %w", err)
		}
		out.MinDate = &d
	}
	if cc.MaxDate != "" {
		d, err := model.ParseDate(cc.MaxDate)
		if err != nil {
			return out, fmt.Errorf("config: max_date: %w", err)
		}
		out.MaxDate = &d
	}
	if out.MinDate != nil && out.MaxDate != nil && out.MinDate.Compare(*out.MaxDate) > 0 {
		return out, errors.New("config: min_date is after max_date")
	}

	days := make([]model.Date, 0, len(cc.BlackoutDates))
	for _, s := range cc.BlackoutDates {
		d, err := model.ParseDate(s)
		if err != nil {
			return out, fmt.Errorf("config: blackout_dates: %w", err)
		}
		days = append(days, d)
	}
	if len(days) > 0 {
		out = out.WithBlackouts(days...)
	}

	if cc.MinDuration != "" {
		d, err := parseDuration(cc.MinDuration)
		if err != nil {
			return out, fmt.Errorf("config: min_duration: %w", err)
		}
		out.MinDuration = &d
	}
	if cc.MaxDuration != "" {
		d, err := parseDuration(cc.MaxDuration)
		if err != nil {
			return out, fmt.Errorf("config: max_duration: %w", err)
		}
		out.MaxDuration = &d
	}

	for _, s := range cc.DisabledDays {
		wd, err := ParseWeekday(s)
		if err != nil {
			return out, fmt.Errorf("config: disabled_days: %w", err)
		}
		out.DisabledDays = append(out.DisabledDays, wd)
	}

	return out, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ParseWeekday accepts an English weekday name (any case, full or three
// letters) or an index 0-6 where 0 is Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday index %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
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
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".tzpick-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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
