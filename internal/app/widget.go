package app

import (
	"context"
	"sync"
	"time"

	"github.com/klabast/wb-services/widecal/internal/calendar"
	"github.com/klabast/wb-services/widecal/internal/events"
)

// Selection is the date picker state of one widget: the selected day
// and the picker configuration. Marker events are read from the event
// collection for the year window around the focused year.
type Selection struct {
	mu       sync.Mutex
	selected time.Time
	language string
	bounds   calendar.Bounds
	events   *events.Collection
	focus    int
	cached   []calendar.EventRecord
	loaded   bool
}

// NewSelection returns an empty selection.
func NewSelection(language string, bounds calendar.Bounds, coll *events.Collection) *Selection {
	return &Selection{language: language, bounds: bounds, events: coll}
}

// SelectedDate implements calendar.Picker.
func (s *Selection) SelectedDate() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, !s.selected.IsZero()
}

// SetSelectedDate implements calendar.Picker.
func (s *Selection) SetSelectedDate(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = t
	return nil
}

// ClearSelectedDate implements calendar.Picker.
func (s *Selection) ClearSelectedDate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = time.Time{}
	return nil
}

// Config implements calendar.Picker.
func (s *Selection) Config() calendar.PickerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return calendar.PickerConfig{
		Language: s.language,
		MinDate:  s.bounds.Min,
		MaxDate:  s.bounds.Max,
		Events:   s.cached,
	}
}

// Focus loads the marker events for year and its neighbours unless
// they are loaded already.
func (s *Selection) Focus(ctx context.Context, year int) {
	s.mu.Lock()
	if s.loaded && s.focus == year {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	var records []calendar.EventRecord
	if s.events != nil {
		records = s.events.Events(ctx, year)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus, s.cached, s.loaded = year, records, true
}

// Invalidate drops the loaded marker events.
func (s *Selection) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

// Widget is one calendar of one browser session.
type Widget struct {
	Name       string
	Session    string
	Surface    *Surface
	Selection  *Selection
	Controller *calendar.Controller

	mu       sync.Mutex
	lastUsed time.Time
	opened   bool
}

func (w *Widget) touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = now
}

func (w *Widget) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Open binds the controller to the surface and shows the saved month,
// if still fresh, or the current one.
func (w *Widget) Open(ctx context.Context) {
	w.mu.Lock()
	w.opened = true
	w.mu.Unlock()
	year, _, _ := w.Controller.Displayed()
	w.Selection.Focus(ctx, year)
	w.Controller.Setup(w.Surface)
	w.Controller.Initialize(ctx)
	if shown, _, _ := w.Controller.Displayed(); shown != year {
		// Restored a month of another year: render again with its markers.
		w.Selection.Focus(ctx, shown)
		w.Controller.Initialize(ctx)
	}
}

// EnsureOpen opens w unless it has been opened before.
func (w *Widget) EnsureOpen(ctx context.Context) {
	w.mu.Lock()
	opened := w.opened
	w.opened = true
	w.mu.Unlock()
	if !opened {
		w.Open(ctx)
	}
}

// Resize records the viewport width and, once w is open, renders the
// grid again when the width changes its column count.
func (w *Widget) Resize(ctx context.Context, width int) {
	if !w.Surface.SetWidth(width) {
		return
	}
	w.mu.Lock()
	opened := w.opened
	w.mu.Unlock()
	if opened {
		w.Controller.Redraw(ctx)
	}
}

// Dispatch routes a posted intent through the surface, loading the
// markers of the year it targets first. When the intent ends up showing
// another year the grid is rendered again with that year's markers.
func (w *Widget) Dispatch(ctx context.Context, intent, value string, loc *time.Location) bool {
	year, _, _ := w.Controller.Displayed()
	if intent == IntentDay {
		if day, err := calendar.ParseDayValue(value, loc); err == nil {
			year = day.In(loc).Year()
		}
	}
	w.Selection.Focus(ctx, year)
	ok := w.Surface.Dispatch(ctx, intent, value)
	if shown, _, _ := w.Controller.Displayed(); shown != year {
		w.Selection.Focus(ctx, shown)
		w.Controller.Redraw(ctx)
	}
	return ok
}

// WidgetFactory creates the widgets of a session.
type WidgetFactory func(session, name string) *Widget

// Registry holds the widgets of all sessions.
type Registry struct {
	mu      sync.Mutex
	widgets map[string]*Widget
	create  WidgetFactory
	now     func() time.Time
}

// NewRegistry returns a registry creating widgets with create.
func NewRegistry(create WidgetFactory) *Registry {
	return &Registry{widgets: map[string]*Widget{}, create: create, now: time.Now}
}

// Get returns the widget name of session, creating it on first use.
func (r *Registry) Get(session, name string) *Widget {
	key := session + "/" + name
	r.mu.Lock()
	w, ok := r.widgets[key]
	if !ok {
		w = r.create(session, name)
		r.widgets[key] = w
	}
	r.mu.Unlock()
	w.touch(r.now())
	return w
}

// Len returns the number of live widgets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

// Prune drops widgets unused for longer than idle and returns how many
// were dropped.
func (r *Registry) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, w := range r.widgets {
		if w.idleSince().Before(cutoff) {
			w.Controller.Teardown()
			delete(r.widgets, key)
			n++
		}
	}
	return n
}

// InvalidateEvents makes every widget reload its markers.
func (r *Registry) InvalidateEvents() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.widgets {
		w.Selection.Invalidate()
	}
}
