package calendar

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/klabast/wb-services/widecal/internal/store"
)

type testLocales map[string]LocaleTable

func (l testLocales) LocaleTable(lang string) (LocaleTable, bool) {
	t, ok := l[lang]
	return t, ok
}

var englishOnly = testLocales{
	"en": {
		Months: []string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	},
}

type fakePicker struct {
	selected time.Time
	has      bool
	cfg      PickerConfig
	setErr   error
}

func (p *fakePicker) SelectedDate() (time.Time, bool) { return p.selected, p.has }

func (p *fakePicker) SetSelectedDate(t time.Time) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.selected, p.has = t, true
	return nil
}

func (p *fakePicker) ClearSelectedDate() error {
	p.selected, p.has = time.Time{}, false
	return nil
}

func (p *fakePicker) Config() PickerConfig { return p.cfg }

type fakeSurface struct {
	columns  int
	year     int
	names    []string
	active   int
	cells    []DayCell
	renders  int
	handlers map[string]IntentHandler
	detached int
	panicOn  bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{columns: NarrowColumns, active: -1, handlers: map[string]IntentHandler{}}
}

func (s *fakeSurface) Columns() int { return s.columns }
func (s *fakeSurface) RenderYear(year int) {
	if s.panicOn {
		panic("surface gone")
	}
	s.year = year
	s.renders++
}
func (s *fakeSurface) RenderMonths(names []string, active int) { s.names, s.active = names, active }
func (s *fakeSurface) RenderDays(cells []DayCell)              { s.cells = cells }

func (s *fakeSurface) FirstRenderedDate() (datetime.CalendarDate, bool) {
	for _, c := range s.cells {
		if c.Kind == Day {
			return c.Date, true
		}
	}
	return datetime.CalendarDate(0), false
}

func (s *fakeSurface) bind(name string, h IntentHandler) func() {
	s.handlers[name] = h
	return func() {
		delete(s.handlers, name)
		s.detached++
	}
}

func (s *fakeSurface) BindMonthClick(h IntentHandler) func() { return s.bind("month", h) }
func (s *fakeSurface) BindYearStep(h IntentHandler) func()   { return s.bind("year", h) }
func (s *fakeSurface) BindDayClick(h IntentHandler) func()   { return s.bind("day", h) }

func (s *fakeSurface) fire(ctx context.Context, name, value string) {
	if h := s.handlers[name]; h != nil {
		h(ctx, value)
	}
}

func (s *fakeSurface) firstDay() DayCell {
	for _, c := range s.cells {
		if c.Kind == Day {
			return c
		}
	}
	return DayCell{}
}

type controllerFixture struct {
	clock   *fakeClock
	kv      *store.Memory
	picker  *fakePicker
	surface *fakeSurface
	ctrl    *Controller
}

func newFixture(t *testing.T, now time.Time) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		clock:   &fakeClock{now: now},
		kv:      store.NewMemory(),
		picker:  &fakePicker{cfg: PickerConfig{Language: "en"}},
		surface: newFakeSurface(),
	}
	view := NewViewState(f.kv, StateKey, WithClock(f.clock.Now))
	f.ctrl = NewController(f.picker, englishOnly, f.surface, view, WithLocation(time.UTC))
	f.ctrl.Setup(f.surface)
	return f
}

func (f *controllerFixture) displayed(t *testing.T, wantYear, wantMonth, wantActive int) {
	t.Helper()
	year, month, active := f.ctrl.Displayed()
	if year != wantYear || month != wantMonth || active != wantActive {
		t.Errorf("displayed = %d/%d active %d, want %d/%d active %d",
			year, month, active, wantYear, wantMonth, wantActive)
	}
}

func TestControllerInitialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)

	f.displayed(t, 2025, 2, 2)
	if f.surface.year != 2025 {
		t.Errorf("rendered year = %d", f.surface.year)
	}
	if want := []string{"Jan", "Feb", "Mar"}; !slices.Equal(f.surface.names[:3], want) {
		t.Errorf("month names = %v", f.surface.names)
	}
	if got := f.surface.firstDay().Date; got != datetime.NewCalendarDate(2025, 3, 1) {
		t.Errorf("first day = %v", got)
	}
	if _, ok, _ := f.kv.Get(context.Background(), StateKey); ok {
		t.Error("Initialize should not save state")
	}
}

func TestControllerInitializeRestores(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.ctrl.Initialize(ctx)
	f.surface.fire(ctx, "month", "7")

	tests := []struct {
		name      string
		after     time.Duration
		wantMonth int
	}{
		{name: "Reload within window", after: 5 * time.Second, wantMonth: 7},
		{name: "Reload after window", after: 11 * time.Second, wantMonth: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: now.Add(tt.after)}
			surface := newFakeSurface()
			view := NewViewState(f.kv, StateKey, WithClock(clock.Now))
			ctrl := NewController(f.picker, englishOnly, surface, view, WithLocation(time.UTC))
			ctrl.Initialize(ctx)
			if _, month, _ := ctrl.Displayed(); month != tt.wantMonth {
				t.Errorf("month = %d, want %d", month, tt.wantMonth)
			}
		})
	}
}

func TestControllerSelectMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)
	renders := f.surface.renders

	f.surface.fire(ctx, "month", "10")
	f.displayed(t, 2025, 10, 10)
	if f.surface.active != 10 {
		t.Errorf("highlighted month = %d", f.surface.active)
	}
	if got := f.surface.firstDay().Date; got != datetime.NewCalendarDate(2025, 11, 1) {
		t.Errorf("first day = %v", got)
	}
	if f.surface.renders != renders {
		t.Error("month selection should not re-render the year header")
	}
	if _, ok, _ := f.kv.Get(context.Background(), StateKey); !ok {
		t.Error("month selection should save state")
	}

	for _, v := range []string{"12", "-1", "abc", ""} {
		f.surface.fire(ctx, "month", v)
	}
	f.displayed(t, 2025, 10, 10)
}

func TestControllerStepYear(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		month      string
		step       string
		wantYear   int
		wantMonth  int
		wantActive int
	}{
		{name: "Next keeps highlighted month", month: "4", step: "next", wantYear: 2026, wantMonth: 4, wantActive: 4},
		{name: "Prev keeps highlighted month", month: "0", step: "prev", wantYear: 2024, wantMonth: 0, wantActive: 0},
		{name: "Numeric step", month: "11", step: "+1", wantYear: 2026, wantMonth: 11, wantActive: 11},
		{name: "Malformed step ignored", month: "6", step: "+5", wantYear: 2025, wantMonth: 6, wantActive: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
			f.ctrl.Initialize(ctx)
			f.surface.fire(ctx, "month", tt.month)
			f.surface.fire(ctx, "year", tt.step)
			f.displayed(t, tt.wantYear, tt.wantMonth, tt.wantActive)
			if f.surface.year != tt.wantYear {
				t.Errorf("rendered year = %d", f.surface.year)
			}
		})
	}
}

func TestControllerStepYearHighlightsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.picker.selected = time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	f.picker.has = true
	f.ctrl.Initialize(ctx)
	f.displayed(t, 2025, 2, 2)

	f.surface.fire(ctx, "year", "prev")
	// The selection's month is highlighted when its year is on display.
	f.displayed(t, 2024, 2, 1)
}

func TestControllerToggleDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)

	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	f.surface.fire(ctx, "day", "2025-05-20")
	if !f.picker.has || !f.picker.selected.Equal(day) {
		t.Fatalf("selection = %v %v, want %v", f.picker.selected, f.picker.has, day)
	}
	f.displayed(t, 2025, 4, 4)
	var selected []string
	for _, c := range f.surface.cells {
		if c.Selected {
			selected = append(selected, c.Key())
		}
	}
	if !slices.Equal(selected, []string{"2025-05-20"}) {
		t.Errorf("selected cells = %v", selected)
	}

	f.clock.advance(200 * time.Millisecond)
	f.surface.fire(ctx, "day", "1747699200000")
	if f.picker.has {
		t.Fatal("second click on the selected day should clear it")
	}
	f.displayed(t, 2025, 4, 4)
	for _, c := range f.surface.cells {
		if c.Selected {
			t.Errorf("cell %s still selected", c.Key())
		}
	}

	f.surface.fire(ctx, "day", "2025-05-20")
	if !f.picker.has {
		t.Error("third click should select the day again")
	}
}

func TestControllerToggleDayStaleLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)
	f.surface.fire(ctx, "day", "2025-08-08")
	f.displayed(t, 2025, 7, 7)

	// Saved state is too old for a lookup, so the rendered grid decides.
	f.clock.advance(5 * time.Second)
	f.surface.fire(ctx, "day", "2025-08-08")
	f.displayed(t, 2025, 7, 7)
}

func TestControllerIgnoresDisabledDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.picker.cfg.MinDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f.ctrl.Initialize(ctx)

	f.surface.fire(ctx, "day", "2025-03-09")
	if f.picker.has {
		t.Error("day before the minimum should not be selectable")
	}
	f.surface.fire(ctx, "day", "not a date")
	if f.picker.has {
		t.Error("malformed day value should be ignored")
	}
}

func TestControllerPickerError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.picker.setErr = errors.New("read only")
	f.ctrl.Initialize(ctx)

	f.surface.fire(ctx, "day", "2025-09-01")
	f.displayed(t, 2025, 2, 2)
	if _, ok, _ := f.kv.Get(context.Background(), StateKey); ok {
		t.Error("failed selection should not save state")
	}
}

func TestControllerSetupIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Setup(f.surface)
	if f.surface.detached != 3 {
		t.Errorf("detached = %d, want 3", f.surface.detached)
	}
	if len(f.surface.handlers) != 3 {
		t.Errorf("bound handlers = %d, want 3", len(f.surface.handlers))
	}
	f.ctrl.Teardown()
	if len(f.surface.handlers) != 0 {
		t.Errorf("handlers left after Teardown: %d", len(f.surface.handlers))
	}
}

func TestControllerUnknownLanguage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.picker.cfg.Language = "xx"
	f.ctrl.Initialize(ctx)
	if len(f.surface.names) != 12 {
		t.Fatalf("month names = %v", f.surface.names)
	}
	for _, n := range f.surface.names {
		if n != "" {
			t.Errorf("expected empty labels, got %v", f.surface.names)
			break
		}
	}
}

func TestControllerRecoversRendererPanic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)
	f.surface.panicOn = true
	f.surface.fire(ctx, "year", "next")
	f.displayed(t, 2025, 2, 2)

	// The controller is still usable afterwards.
	f.surface.panicOn = false
	f.surface.fire(ctx, "year", "next")
	f.displayed(t, 2026, 2, 2)
}

func TestControllerDayClickPanicKeepsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)
	f.surface.fire(ctx, "day", "2025-03-20")
	selected := f.picker.selected

	f.surface.panicOn = true
	f.surface.fire(ctx, "day", "2025-07-01")
	if !f.picker.has || !f.picker.selected.Equal(selected) {
		t.Errorf("selection = %v %v, want %v", f.picker.selected, f.picker.has, selected)
	}
	f.surface.fire(ctx, "day", "2025-03-20")
	if !f.picker.has {
		t.Error("failed deselect should keep the selection")
	}
	f.displayed(t, 2025, 2, 2)

	f.picker.ClearSelectedDate()
	f.surface.fire(ctx, "day", "2025-07-01")
	if f.picker.has {
		t.Errorf("failed select should leave no selection, got %v", f.picker.selected)
	}
}

func TestControllerRedraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	f.ctrl.Initialize(ctx)
	f.surface.fire(ctx, "month", "6")
	saved, _, _ := f.kv.Get(context.Background(), StateKey)

	f.surface.columns = WideColumns
	f.ctrl.Redraw(ctx)
	if len(f.surface.cells)%WideColumns != 0 {
		t.Errorf("%d cells are not a multiple of %d", len(f.surface.cells), WideColumns)
	}
	if got := f.surface.firstDay().Date; got.Month() != 7 || got.Day() != 1 {
		t.Errorf("first day = %v, want July 1", got)
	}
	f.displayed(t, 2025, 6, 6)
	if f.surface.active != 6 {
		t.Errorf("active month cell = %d, want 6", f.surface.active)
	}
	if now, _, _ := f.kv.Get(context.Background(), StateKey); string(now) != string(saved) {
		t.Errorf("Redraw() should not save: %s != %s", now, saved)
	}
}

func TestControllerWithoutCollaborators(t *testing.T) {
	ctx := context.Background()
	c := NewController(nil, nil, nil, nil)
	c.Initialize(ctx)
	c.SelectMonth(ctx, 3)
	c.StepYear(ctx, 1)
	c.ToggleDay(ctx, time.Now())
	if _, month, active := c.Displayed(); month != 3 || active != 3 {
		t.Errorf("displayed month %d active %d", month, active)
	}
}
