// Package calendar implements the view logic of the wide date-picker
// calendar: building the day grid for a month, resolving event markers,
// remembering the displayed month and reacting to navigation intents.
package calendar

import (
	"fmt"
	"time"

	"cloudeng.io/datetime"
)

// Grid widths used by the narrow and wide layouts.
const (
	NarrowColumns = 7
	WideColumns   = 16

	// WideBreakpoint is the viewport width, in pixels, from which the
	// wide layout is used.
	WideBreakpoint = 768
)

// MaxMarkers is the maximum number of marker colors shown for a day.
const MaxMarkers = 5

// CellKind distinguishes padding cells from day cells.
type CellKind int

const (
	Padding CellKind = iota
	Day
)

func (k CellKind) String() string {
	if k == Day {
		return "day"
	}
	return "padding"
}

// DayCell is one position of the day grid. Date, Millis and the state
// flags are only meaningful for cells of kind Day.
type DayCell struct {
	Kind     CellKind
	Date     datetime.CalendarDate
	Millis   int64 // local midnight of Date in epoch milliseconds
	Selected bool
	Today    bool
	Disabled bool
	Markers  []string
}

// Key returns the YYYY-MM-DD form of the cell's date, or "" for padding.
func (c DayCell) Key() string {
	if c.Kind != Day {
		return ""
	}
	return DateKey(c.Date)
}

// Bounds is an optional inclusive date range. A zero Min or Max means
// the range is open on that side.
type Bounds struct {
	Min time.Time
	Max time.Time
}

// Excludes reports whether the day lies strictly outside the bounds.
func (b Bounds) Excludes(day datetime.CalendarDate, loc *time.Location) bool {
	d := ordinal(day)
	if !b.Min.IsZero() && d < ordinal(CalendarDateOf(b.Min.In(loc))) {
		return true
	}
	if !b.Max.IsZero() && d > ordinal(CalendarDateOf(b.Max.In(loc))) {
		return true
	}
	return false
}

// DateKey formats a calendar date as YYYY-MM-DD.
func DateKey(d datetime.CalendarDate) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}

// CalendarDateOf returns the calendar date of t in t's location.
func CalendarDateOf(t time.Time) datetime.CalendarDate {
	return datetime.NewCalendarDate(t.Year(), datetime.Month(t.Month()), t.Day())
}

// Midnight returns the start of the day d in loc.
func Midnight(d datetime.CalendarDate, loc *time.Location) time.Time {
	return time.Date(d.Year(), time.Month(d.Month()), d.Day(), 0, 0, 0, 0, loc)
}

// ColumnsForWidth returns the column count for a viewport width.
func ColumnsForWidth(width int) int {
	if width >= WideBreakpoint {
		return WideColumns
	}
	return NarrowColumns
}

func ordinal(d datetime.CalendarDate) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// normalizeMonth folds a zero-based month outside 0-11 into the year.
func normalizeMonth(year, month int) (int, int) {
	t := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month()) - 1
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
