package calendar

import (
	"time"

	"cloudeng.io/datetime"
)

// GridRequest describes the month to lay out. Month is zero based;
// values outside 0-11 roll over into the neighbouring years.
type GridRequest struct {
	Year     int
	Month    int
	Selected time.Time // zero when nothing is selected
	Today    time.Time
	Bounds   Bounds
	Events   []EventRecord
	Columns  int // defaults to NarrowColumns
	Location *time.Location
}

// BuildDayGrid returns the cells of the requested month, preceded by one
// padding cell per weekday before the first of the month (weeks start on
// Monday) and followed by as many padding cells as needed to fill the
// last row of Columns cells.
func BuildDayGrid(req GridRequest) []DayCell {
	loc := orLocal(req.Location)
	columns := req.Columns
	if columns <= 0 {
		columns = NarrowColumns
	}

	first := time.Date(req.Year, time.Month(req.Month+1), 1, 0, 0, 0, 0, loc)
	year, month := first.Year(), datetime.Month(first.Month())
	days := int(datetime.DaysInMonth(year, month))
	leading := LeadingPadding(first.Weekday())
	trailing := TrailingPadding(leading+days, columns)

	today := CalendarDateOf(req.Today.In(loc))
	selected, hasSelection := datetime.CalendarDate(0), !req.Selected.IsZero()
	if hasSelection {
		selected = CalendarDateOf(req.Selected.In(loc))
	}

	cells := make([]DayCell, 0, leading+days+trailing)
	for range leading {
		cells = append(cells, DayCell{Kind: Padding})
	}
	for d := 1; d <= days; d++ {
		date := datetime.NewCalendarDate(year, month, d)
		cells = append(cells, DayCell{
			Kind:     Day,
			Date:     date,
			Millis:   Midnight(date, loc).UnixMilli(),
			Selected: hasSelection && date == selected,
			Today:    date == today,
			Disabled: req.Bounds.Excludes(date, loc),
			Markers:  ResolveMarkers(date, loc, req.Events),
		})
	}
	for range trailing {
		cells = append(cells, DayCell{Kind: Padding})
	}
	return cells
}

// LeadingPadding remaps a weekday so that Monday is 0 and Sunday is 6.
func LeadingPadding(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// TrailingPadding returns the smallest number of cells that makes
// filled a multiple of columns.
func TrailingPadding(filled, columns int) int {
	if columns <= 0 {
		return 0
	}
	return (columns - filled%columns) % columns
}
