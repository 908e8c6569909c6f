package calendar

import (
	"context"
	"encoding/json"
	"time"

	"cloudeng.io/logging/ctxlog"
)

// StateKey is the store key the displayed month is saved under. Per
// widget keys are derived from it with StateKeyFor.
const StateKey = "datepicker_state"

// Freshness windows for saved view state.
const (
	// RestoreWindow bounds the age of a state restored when a widget
	// is initialized, long enough to survive a page reload.
	RestoreWindow = 10 * time.Second
	// LookupWindow bounds the age of a state used to answer which
	// month is displayed within one burst of interaction.
	LookupWindow = time.Second
)

// Store is a best-effort, short-lived key-value store. Get reports
// whether the key was present.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// StateKeyFor returns the store key for a widget namespace. An empty
// namespace yields the page-wide StateKey.
func StateKeyFor(namespace string) string {
	if namespace == "" {
		return StateKey
	}
	return StateKey + ":" + namespace
}

type savedState struct {
	Year      int   `json:"year"`
	Month     int   `json:"month"`
	Timestamp int64 `json:"timestamp"`
}

// ViewState records the displayed year and zero-based month and saves
// them to a Store so that they survive a reload.
type ViewState struct {
	Year    int
	Month   int
	SavedAt time.Time

	store Store
	key   string
	now   func() time.Time
}

// ViewStateOption configures a ViewState.
type ViewStateOption func(*ViewState)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ViewStateOption {
	return func(vs *ViewState) {
		vs.now = now
	}
}

// NewViewState returns a ViewState showing the current month. A nil
// store disables persistence.
func NewViewState(store Store, key string, opts ...ViewStateOption) *ViewState {
	vs := &ViewState{store: store, key: key, now: time.Now}
	for _, opt := range opts {
		opt(vs)
	}
	vs.reset()
	return vs
}

// Now returns the current time according to the state's clock.
func (vs *ViewState) Now() time.Time {
	return vs.now()
}

// Key returns the store key in use.
func (vs *ViewState) Key() string {
	return vs.key
}

// Set records a new displayed month, folding out of range months into
// the year.
func (vs *ViewState) Set(year, month int) {
	vs.Year, vs.Month = normalizeMonth(year, month)
}

func (vs *ViewState) reset() {
	now := vs.now()
	vs.Year, vs.Month = now.Year(), int(now.Month())-1
}

// Restore loads the saved state if it is younger than RestoreWindow and
// otherwise falls back to the current month. It reports whether the
// saved state was used.
func (vs *ViewState) Restore(ctx context.Context) bool {
	s, ok := vs.load(ctx)
	if !ok || !vs.fresh(s, RestoreWindow) {
		vs.reset()
		return false
	}
	vs.Set(s.Year, s.Month)
	return true
}

// Save writes the displayed month with the current timestamp. Failures
// are logged.
func (vs *ViewState) Save(ctx context.Context) {
	if vs.store == nil {
		return
	}
	now := vs.now()
	data, err := json.Marshal(savedState{Year: vs.Year, Month: vs.Month, Timestamp: now.UnixMilli()})
	if err != nil {
		ctxlog.Logger(ctx).Error("error encoding calendar state", "key", vs.key, "error", err)
		return
	}
	if err := vs.store.Set(ctx, vs.key, data); err != nil {
		ctxlog.Logger(ctx).Warn("error saving calendar state", "key", vs.key, "error", err)
		return
	}
	vs.SavedAt = now
}

// Clear removes the saved state.
func (vs *ViewState) Clear(ctx context.Context) {
	if vs.store == nil {
		return
	}
	if err := vs.store.Clear(ctx, vs.key); err != nil {
		ctxlog.Logger(ctx).Warn("error clearing calendar state", "key", vs.key, "error", err)
	}
}

// LookupMonth answers which zero-based month is on display without
// looking at the live view: a saved state younger than LookupWindow
// wins, then the first rendered day of inspect, then the current month.
func (vs *ViewState) LookupMonth(ctx context.Context, inspect GridInspector) int {
	if s, ok := vs.load(ctx); ok && vs.fresh(s, LookupWindow) {
		_, month := normalizeMonth(s.Year, s.Month)
		return month
	}
	if inspect != nil {
		if d, ok := inspect.FirstRenderedDate(); ok {
			return int(d.Month()) - 1
		}
	}
	return int(vs.now().Month()) - 1
}

func (vs *ViewState) fresh(s savedState, window time.Duration) bool {
	return vs.now().UnixMilli()-s.Timestamp < window.Milliseconds()
}

func (vs *ViewState) load(ctx context.Context) (savedState, bool) {
	if vs.store == nil {
		return savedState{}, false
	}
	data, ok, err := vs.store.Get(ctx, vs.key)
	if err != nil {
		ctxlog.Logger(ctx).Warn("error loading calendar state", "key", vs.key, "error", err)
		return savedState{}, false
	}
	if !ok {
		return savedState{}, false
	}
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		ctxlog.Logger(ctx).Warn("error parsing calendar state", "key", vs.key, "error", err)
		return savedState{}, false
	}
	return s, true
}
