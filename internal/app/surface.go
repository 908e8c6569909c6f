package app

import (
	"context"
	"sync"

	"cloudeng.io/datetime"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// Intents a surface accepts.
const (
	IntentMonth = "month"
	IntentYear  = "year"
	IntentDay   = "day"
)

// Surface is the server-side view of one calendar widget. It records
// what the controller renders so that it can be written out as HTML or
// JSON, and routes posted form values to the bound intent handlers.
type Surface struct {
	mu       sync.Mutex
	width    int
	columns  int
	year     int
	names    []string
	active   int
	cells    []calendar.DayCell
	handlers map[string]calendar.IntentHandler
}

// NewSurface returns an empty surface for a viewport of width pixels.
func NewSurface(width int) *Surface {
	return &Surface{
		width:    width,
		active:   -1,
		names:    make([]string, 12),
		handlers: map[string]calendar.IntentHandler{},
	}
}

// SetWidth records the viewport width the browser reported and reports
// whether it needs a different number of columns than the rendered grid.
func (s *Surface) SetWidth(width int) bool {
	if width <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	return s.cells != nil && calendar.ColumnsForWidth(width) != s.columns
}

// Width returns the last reported viewport width.
func (s *Surface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Columns implements calendar.Renderer.
func (s *Surface) Columns() int {
	return calendar.ColumnsForWidth(s.Width())
}

// RenderYear implements calendar.Renderer.
func (s *Surface) RenderYear(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.year = year
}

// RenderMonths implements calendar.Renderer.
func (s *Surface) RenderMonths(names []string, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names[:0], names...)
	s.active = active
}

// RenderDays implements calendar.Renderer.
func (s *Surface) RenderDays(cells []calendar.DayCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = cells
	s.columns = calendar.ColumnsForWidth(s.width)
}

// FirstRenderedDate implements calendar.GridInspector.
func (s *Surface) FirstRenderedDate() (datetime.CalendarDate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cells {
		if c.Kind == calendar.Day {
			return c.Date, true
		}
	}
	return datetime.CalendarDate(0), false
}

func (s *Surface) bind(intent string, h calendar.IntentHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[intent] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, intent)
	}
}

// BindMonthClick implements calendar.Binder.
func (s *Surface) BindMonthClick(h calendar.IntentHandler) func() {
	return s.bind(IntentMonth, h)
}

// BindYearStep implements calendar.Binder.
func (s *Surface) BindYearStep(h calendar.IntentHandler) func() {
	return s.bind(IntentYear, h)
}

// BindDayClick implements calendar.Binder.
func (s *Surface) BindDayClick(h calendar.IntentHandler) func() {
	return s.bind(IntentDay, h)
}

// Dispatch passes value to the handler bound for intent and reports
// whether there was one.
func (s *Surface) Dispatch(ctx context.Context, intent, value string) bool {
	s.mu.Lock()
	h := s.handlers[intent]
	s.mu.Unlock()
	if h == nil {
		return false
	}
	h(ctx, value)
	return true
}

// Snapshot is a copy of what the surface currently shows.
type Snapshot struct {
	Year    int
	Names   []string
	Active  int
	Cells   []calendar.DayCell
	Columns int
	Width   int
}

// Snapshot returns a copy of the rendered view.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Year:    s.year,
		Names:   append([]string(nil), s.names...),
		Active:  s.active,
		Cells:   append([]calendar.DayCell(nil), s.cells...),
		Columns: s.renderedColumns(),
		Width:   s.width,
	}
}

func (s *Surface) renderedColumns() int {
	if s.cells == nil {
		return calendar.ColumnsForWidth(s.width)
	}
	return s.columns
}
