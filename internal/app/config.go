package app

import (
	"context"
	"fmt"
	"regexp"
	"time"
	_ "time/tzdata"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/cmdyaml"
	"cloudeng.io/errors"

	"github.com/klabast/wb-services/widecal/internal/calendar"
	"github.com/klabast/wb-services/widecal/internal/events"
)

// Constants
const (
	DefaultListen = ":8080"
	DefaultWidget = "main"
	SessionCookie = "widecal_session"

	// Error messages
	ErrEditModeDisabled     = "Edit mode disabled"
	ErrNoEventFile          = "No event file configured"
	ErrUnknownWidget        = "Unknown widget"
	ErrInvalidDateFormat    = "Invalid date format"
	ErrInvalidYear          = "Invalid year"
	ErrInvalidFormat        = "Invalid format"
	ErrInvalidRequest       = "Invalid request body"
	ErrInternalServer       = "Internal server error"
	ErrFailedToSave         = "Failed to save events"
	ErrFailedToGenerateJSON = "Failed to generate JSON"

	// Mode strings
	ModeServe = "serve"
	ModeEdit  = "edit"
)

var widgetNameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// WidgetConfig names a calendar widget and its month label language.
type WidgetConfig struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
}

// StateConfig configures where displayed months are saved.
type StateConfig struct {
	// File keeps saved state across restarts; empty means in memory.
	File string `yaml:"file"`
	// SharedKey makes all widgets share the single key
	// calendar.StateKey instead of one key per session and widget.
	SharedKey bool `yaml:"shared_key"`
}

// ICSConfig is an imported iCalendar file.
type ICSConfig struct {
	Path  string `yaml:"path"`
	Color string `yaml:"color"`
}

// HolidayConfig enables public holiday markers.
type HolidayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Color   string `yaml:"color"`
}

// EventsConfig lists the marker sources.
type EventsConfig struct {
	File     string        `yaml:"file"`
	ICS      []ICSConfig   `yaml:"ics"`
	Holidays HolidayConfig `yaml:"holidays"`
}

// Config is the server configuration, read from YAML.
type Config struct {
	Listen   string                `yaml:"listen"`
	Language string                `yaml:"language"`
	Timezone string                `yaml:"timezone"`
	MinDate  string                `yaml:"min_date"`
	MaxDate  string                `yaml:"max_date"`
	Locales  string                `yaml:"locales"`
	Widgets  []WidgetConfig        `yaml:"widgets"`
	State    StateConfig           `yaml:"state"`
	Events   EventsConfig          `yaml:"events"`
	Logging  cmdutil.LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Listen:   DefaultListen,
		Language: calendar.DefaultLanguage,
		Widgets:  []WidgetConfig{{Name: DefaultWidget}},
		Logging:  cmdutil.LoggingConfig{Level: 2, Format: "text"},
	}
}

// ParseConfig parses YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Widgets = nil
	if err := cmdyaml.ParseConfig(data, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Widgets) == 0 {
		cfg.Widgets = []WidgetConfig{{Name: DefaultWidget}}
	}
	return cfg, nil
}

// LoadConfig reads the config file at path. An empty path yields
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg := DefaultConfig()
	cfg.Widgets = nil
	if err := cmdyaml.ParseConfigFile(context.Background(), path, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Widgets) == 0 {
		cfg.Widgets = []WidgetConfig{{Name: DefaultWidget}}
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	errs := &errors.M{}
	loc, err := c.Location()
	if err != nil {
		errs.Append(err)
		loc = time.UTC
	}
	minDate, err := parseConfigDate("min_date", c.MinDate, loc)
	errs.Append(err)
	maxDate, err := parseConfigDate("max_date", c.MaxDate, loc)
	errs.Append(err)
	if !minDate.IsZero() && !maxDate.IsZero() && maxDate.Before(minDate) {
		errs.Append(fmt.Errorf("max_date %s is before min_date %s", c.MaxDate, c.MinDate))
	}
	seen := map[string]bool{}
	for i, w := range c.Widgets {
		switch {
		case !widgetNameRE.MatchString(w.Name):
			errs.Append(fmt.Errorf("widgets[%d]: invalid name %q", i, w.Name))
		case seen[w.Name]:
			errs.Append(fmt.Errorf("widgets[%d]: duplicate name %q", i, w.Name))
		}
		seen[w.Name] = true
	}
	for i, ics := range c.Events.ICS {
		if ics.Path == "" {
			errs.Append(fmt.Errorf("events.ics[%d]: path is required", i))
		}
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs.Append(fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errs.Err()
}

// Location returns the configured time zone, defaulting to time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// Bounds returns the configured date range in loc. Invalid dates are
// treated as unset; Validate reports them.
func (c Config) Bounds(loc *time.Location) calendar.Bounds {
	minDate, _ := parseConfigDate("min_date", c.MinDate, loc)
	maxDate, _ := parseConfigDate("max_date", c.MaxDate, loc)
	return calendar.Bounds{Min: minDate, Max: maxDate}
}

// Widget returns the configuration of the named widget.
func (c Config) Widget(name string) (WidgetConfig, bool) {
	for _, w := range c.Widgets {
		if w.Name == name {
			if w.Language == "" {
				w.Language = c.Language
			}
			return w, true
		}
	}
	return WidgetConfig{}, false
}

// StateKey returns the store key for a widget of a browser session.
func (c Config) StateKey(session, widget string) string {
	if c.State.SharedKey {
		return calendar.StateKey
	}
	return calendar.StateKeyFor(session + ":" + widget)
}

// EventSources builds the configured marker sources. They still need
// to be loaded.
func (c Config) EventSources(loc *time.Location) (*events.File, []events.Source) {
	var (
		file    *events.File
		sources []events.Source
	)
	if c.Events.File != "" {
		file = events.NewFile(c.Events.File, loc)
		sources = append(sources, file)
	}
	for _, ics := range c.Events.ICS {
		sources = append(sources, events.NewICSFile(ics.Path, ics.Color, loc))
	}
	if c.Events.Holidays.Enabled {
		sources = append(sources, events.Holidays{Color: c.Events.Holidays.Color})
	}
	return file, sources
}

func parseConfigDate(field, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %s %q", field, ErrInvalidDateFormat, value)
	}
	return t, nil
}
