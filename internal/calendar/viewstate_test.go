package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/klabast/wb-services/widecal/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("storage unavailable")
}
func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }
func (brokenStore) Clear(context.Context, string) error       { return errors.New("storage unavailable") }

type firstDate datetime.CalendarDate

func (d firstDate) FirstRenderedDate() (datetime.CalendarDate, bool) {
	return datetime.CalendarDate(d), true
}

func TestViewStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	kv := store.NewMemory()

	vs := NewViewState(kv, StateKey, WithClock(clock.Now))
	if vs.Year != 2025 || vs.Month != 5 {
		t.Fatalf("new state = %d/%d, want 2025/5", vs.Year, vs.Month)
	}
	vs.Set(2023, 10)
	vs.Save(ctx)
	if !vs.SavedAt.Equal(clock.now) {
		t.Errorf("SavedAt = %v, want %v", vs.SavedAt, clock.now)
	}

	tests := []struct {
		name      string
		after     time.Duration
		wantYear  int
		wantMonth int
		restored  bool
	}{
		{name: "Within window", after: 9 * time.Second, wantYear: 2023, wantMonth: 10, restored: true},
		{name: "Window expired", after: 10 * time.Second, wantYear: 2025, wantMonth: 5, restored: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClock{now: clock.now.Add(tt.after)}
			restored := NewViewState(kv, StateKey, WithClock(c.Now))
			if got := restored.Restore(ctx); got != tt.restored {
				t.Errorf("Restore() = %v, want %v", got, tt.restored)
			}
			if restored.Year != tt.wantYear || restored.Month != tt.wantMonth {
				t.Errorf("state = %d/%d, want %d/%d", restored.Year, restored.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestViewStateSetNormalizes(t *testing.T) {
	vs := NewViewState(nil, "")
	vs.Set(2024, 12)
	if vs.Year != 2025 || vs.Month != 0 {
		t.Errorf("Set(2024, 12) = %d/%d", vs.Year, vs.Month)
	}
	vs.Set(2024, -1)
	if vs.Year != 2023 || vs.Month != 11 {
		t.Errorf("Set(2024, -1) = %d/%d", vs.Year, vs.Month)
	}
}

func TestViewStateLookupMonth(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	kv := store.NewMemory()
	vs := NewViewState(kv, StateKey, WithClock(clock.Now))
	vs.Set(2025, 2)
	vs.Save(ctx)

	inspect := firstDate(datetime.NewCalendarDate(2025, 9, 1))

	clock.advance(500 * time.Millisecond)
	if got := vs.LookupMonth(ctx, inspect); got != 2 {
		t.Errorf("fresh lookup = %d, want 2 from store", got)
	}

	clock.advance(time.Second)
	if got := vs.LookupMonth(ctx, inspect); got != 8 {
		t.Errorf("stale lookup = %d, want 8 from rendered grid", got)
	}
	if got := vs.LookupMonth(ctx, nil); got != 5 {
		t.Errorf("stale lookup without grid = %d, want current month 5", got)
	}
}

func TestViewStateStorageFailures(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	vs := NewViewState(brokenStore{}, StateKey, WithClock(clock.Now))
	vs.Set(2020, 1)

	vs.Save(ctx)
	if !vs.SavedAt.IsZero() {
		t.Error("SavedAt should not be set when the write fails")
	}
	vs.Clear(ctx)
	if vs.Restore(ctx) {
		t.Error("Restore() should fall back when the store fails")
	}
	if vs.Year != 2025 || vs.Month != 5 {
		t.Errorf("fallback state = %d/%d, want 2025/5", vs.Year, vs.Month)
	}
	if got := vs.LookupMonth(ctx, nil); got != 5 {
		t.Errorf("LookupMonth() = %d, want 5", got)
	}
}

func TestViewStateCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	if err := kv.Set(ctx, StateKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	clock := &fakeClock{now: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	vs := NewViewState(kv, StateKey, WithClock(clock.Now))
	if vs.Restore(ctx) {
		t.Error("Restore() should ignore an unparsable value")
	}
	if vs.Year != 2025 || vs.Month != 0 {
		t.Errorf("state = %d/%d", vs.Year, vs.Month)
	}
}

func TestStateKeyFor(t *testing.T) {
	if got := StateKeyFor(""); got != StateKey {
		t.Errorf("StateKeyFor(\"\") = %q", got)
	}
	if got := StateKeyFor("abc:main"); got != "datepicker_state:abc:main" {
		t.Errorf("StateKeyFor() = %q", got)
	}
}
