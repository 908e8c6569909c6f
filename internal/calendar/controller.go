package calendar

import (
	"context"
	"sync"
	"time"

	"cloudeng.io/logging/ctxlog"
)

// PickerConfig is the part of the host picker's configuration the
// calendar uses. Zero MinDate/MaxDate mean no bound.
type PickerConfig struct {
	Language string
	MinDate  time.Time
	MaxDate  time.Time
	Events   []EventRecord
}

// Bounds returns the configured date bounds.
func (c PickerConfig) Bounds() Bounds {
	return Bounds{Min: c.MinDate, Max: c.MaxDate}
}

// Picker is the host date picker that owns the selection.
type Picker interface {
	SelectedDate() (time.Time, bool)
	SetSelectedDate(t time.Time) error
	ClearSelectedDate() error
	Config() PickerConfig
}

type intentKind int

const (
	monthClick intentKind = iota
	yearStep
	dayClick
)

// Controller drives the calendar: it turns month clicks, year steps and
// day clicks into a new displayed month, renders it and saves it.
// Intents are handled one at a time and never return errors; failures
// are logged and leave the view untouched.
type Controller struct {
	mu       sync.Mutex
	picker   Picker
	locales  LocaleSource
	renderer Renderer
	view     *ViewState
	loc      *time.Location
	active   int // highlighted month cell, -1 when none
	detach   map[intentKind]func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocation sets the location used for calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		c.loc = loc
	}
}

// NewController returns a controller for picker. A nil view is replaced
// by one without persistence.
func NewController(picker Picker, locales LocaleSource, renderer Renderer, view *ViewState, opts ...Option) *Controller {
	if view == nil {
		view = NewViewState(nil, "")
	}
	c := &Controller{
		picker:   picker,
		locales:  locales,
		renderer: renderer,
		view:     view,
		loc:      time.Local,
		active:   -1,
		detach:   map[intentKind]func(){},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loc = orLocal(c.loc)
	return c
}

// Initialize restores the saved month, if still fresh, and renders it.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverIntent(ctx, "initialize")
	c.view.Restore(ctx)
	c.renderCalendar(ctx, c.view.Year, c.view.Month)
}

// Setup binds the controller's handlers to b, detaching any handlers
// bound by an earlier call first.
func (c *Controller) Setup(b Binder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	if b == nil {
		return
	}
	c.detach[monthClick] = b.BindMonthClick(c.onMonthClick)
	c.detach[yearStep] = b.BindYearStep(c.onYearStep)
	c.detach[dayClick] = b.BindDayClick(c.onDayClick)
}

// Teardown detaches all bound handlers.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

func (c *Controller) teardownLocked() {
	for kind, detach := range c.detach {
		if detach != nil {
			detach()
		}
		delete(c.detach, kind)
	}
}

// Displayed returns the displayed year, zero-based month and the
// highlighted month cell (-1 when none).
func (c *Controller) Displayed() (year, month, active int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Year, c.view.Month, c.active
}

// Redraw renders the displayed month again, keeping the highlighted
// month cell. Nothing is saved.
func (c *Controller) Redraw(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverIntent(ctx, "redraw")
	year, month := c.view.Year, c.view.Month
	cfg := c.config()
	cells := c.grid(cfg, year, month)
	names := MonthNames(c.locales, cfg.Language)
	if c.renderer != nil {
		c.renderer.RenderYear(year)
		c.renderer.RenderDays(cells)
		c.renderer.RenderMonths(names, c.active)
	}
}

// SelectMonth shows month of the displayed year.
func (c *Controller) SelectMonth(ctx context.Context, month int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverIntent(ctx, "month")
	if month < 0 || month > 11 {
		ctxlog.Logger(ctx).Debug("ignoring month outside 0-11", "month", month)
		return
	}
	year := c.view.Year
	cfg := c.config()
	cells := c.grid(cfg, year, month)
	names := MonthNames(c.locales, cfg.Language)
	if c.renderer != nil {
		c.renderer.RenderDays(cells)
		c.renderer.RenderMonths(names, month)
	}
	c.view.Set(year, month)
	c.active = month
	c.view.Save(ctx)
}

// StepYear moves delta years, keeping the highlighted month or, when no
// month is highlighted, the current one.
func (c *Controller) StepYear(ctx context.Context, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverIntent(ctx, "year")
	if delta == 0 {
		return
	}
	month := c.active
	if month < 0 {
		month = int(c.view.Now().In(c.loc).Month()) - 1
	}
	c.renderCalendar(ctx, c.view.Year+delta, month)
	c.view.Save(ctx)
}

// ToggleDay selects day, or clears the selection when day is already
// selected. Days outside the configured bounds are ignored.
func (c *Controller) ToggleDay(ctx context.Context, day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverIntent(ctx, "day")
	logger := ctxlog.Logger(ctx)
	if c.picker == nil {
		return
	}
	date := CalendarDateOf(day.In(c.loc))
	if c.picker.Config().Bounds().Excludes(date, c.loc) {
		logger.Debug("ignoring click on disabled day", "date", DateKey(date))
		return
	}
	current, ok := c.picker.SelectedDate()
	rendered := false
	defer func() {
		if !rendered {
			c.restoreSelection(ctx, current, ok)
		}
	}()
	if ok && CalendarDateOf(current.In(c.loc)) == date {
		if err := c.picker.ClearSelectedDate(); err != nil {
			logger.Error("error clearing selected date", "date", DateKey(date), "error", err)
			return
		}
		year := c.view.Year
		month := c.view.LookupMonth(ctx, c.inspector())
		c.renderCalendar(ctx, year, month)
	} else {
		if err := c.picker.SetSelectedDate(Midnight(date, c.loc)); err != nil {
			logger.Error("error setting selected date", "date", DateKey(date), "error", err)
			return
		}
		c.renderCalendar(ctx, date.Year(), int(date.Month())-1)
	}
	rendered = true
	c.view.Save(ctx)
}

// restoreSelection puts back the selection a day click started from when
// the click could not be rendered.
func (c *Controller) restoreSelection(ctx context.Context, prev time.Time, had bool) {
	current, ok := c.picker.SelectedDate()
	if ok == had && (!ok || current.Equal(prev)) {
		return
	}
	var err error
	if had {
		err = c.picker.SetSelectedDate(prev)
	} else {
		err = c.picker.ClearSelectedDate()
	}
	if err != nil {
		ctxlog.Logger(ctx).Error("error restoring selected date", "error", err)
	}
}

func (c *Controller) onMonthClick(ctx context.Context, value string) {
	month, err := ParseMonthIndex(value)
	if err != nil {
		ctxlog.Logger(ctx).Debug("ignoring month click", "error", err)
		return
	}
	c.SelectMonth(ctx, month)
}

func (c *Controller) onYearStep(ctx context.Context, value string) {
	delta, err := ParseYearStep(value)
	if err != nil {
		ctxlog.Logger(ctx).Debug("ignoring year step", "error", err)
		return
	}
	c.StepYear(ctx, delta)
}

func (c *Controller) onDayClick(ctx context.Context, value string) {
	day, err := ParseDayValue(value, c.loc)
	if err != nil {
		ctxlog.Logger(ctx).Debug("ignoring day click", "error", err)
		return
	}
	c.ToggleDay(ctx, day)
}

// renderCalendar shows year and month: year header, day grid and month
// names. Everything is computed before the renderer is touched.
func (c *Controller) renderCalendar(ctx context.Context, year, month int) {
	year, month = normalizeMonth(year, month)
	cfg := c.config()
	cells := c.grid(cfg, year, month)
	names := MonthNames(c.locales, cfg.Language)
	active := month
	if sel, ok := c.selected(); ok && sel.Year() == year {
		active = int(sel.Month()) - 1
	}
	if c.renderer != nil {
		c.renderer.RenderYear(year)
		c.renderer.RenderDays(cells)
		c.renderer.RenderMonths(names, active)
	}
	c.view.Set(year, month)
	c.active = active
	ctxlog.Logger(ctx).Debug("calendar rendered", "year", year, "month", month, "active", active)
}

func (c *Controller) grid(cfg PickerConfig, year, month int) []DayCell {
	sel, _ := c.selected()
	return BuildDayGrid(GridRequest{
		Year:     year,
		Month:    month,
		Selected: sel,
		Today:    c.view.Now(),
		Bounds:   cfg.Bounds(),
		Events:   cfg.Events,
		Columns:  c.columns(),
		Location: c.loc,
	})
}

func (c *Controller) config() PickerConfig {
	if c.picker == nil {
		return PickerConfig{}
	}
	return c.picker.Config()
}

func (c *Controller) selected() (time.Time, bool) {
	if c.picker == nil {
		return time.Time{}, false
	}
	t, ok := c.picker.SelectedDate()
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t.In(c.loc), true
}

func (c *Controller) columns() int {
	if c.renderer == nil {
		return NarrowColumns
	}
	return c.renderer.Columns()
}

func (c *Controller) inspector() GridInspector {
	if gi, ok := c.renderer.(GridInspector); ok {
		return gi
	}
	return nil
}

func (c *Controller) recoverIntent(ctx context.Context, intent string) {
	if r := recover(); r != nil {
		ctxlog.Logger(ctx).Error("error handling calendar intent", "intent", intent, "panic", r)
	}
}
