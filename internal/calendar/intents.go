package calendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// IntentHandler receives the raw value carried by an input, for example
// the month index of a month cell or the timestamp of a day cell.
type IntentHandler func(ctx context.Context, value string)

// Binder attaches intent handlers to an input surface. Each Bind method
// returns a function that detaches the handler again; it may return nil
// when the surface has no such input.
type Binder interface {
	BindMonthClick(h IntentHandler) (detach func())
	BindYearStep(h IntentHandler) (detach func())
	BindDayClick(h IntentHandler) (detach func())
}

// Renderer materializes a view. Columns reports the grid width the
// renderer wants for the current viewport.
type Renderer interface {
	Columns() int
	RenderYear(year int)
	RenderMonths(names []string, active int)
	RenderDays(cells []DayCell)
}

// GridInspector is implemented by renderers that can report the date of
// the first day cell they currently show.
type GridInspector interface {
	FirstRenderedDate() (datetime.CalendarDate, bool)
}

// ParseMonthIndex parses the zero-based index of a month cell.
func ParseMonthIndex(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid month index %q", value)
	}
	if n < 0 || n > 11 {
		return 0, fmt.Errorf("month index out of range: %d", n)
	}
	return n, nil
}

// ParseYearStep parses the value of a year navigation button: "prev",
// "next", "-1" or "+1".
func ParseYearStep(value string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "prev", "-1":
		return -1, nil
	case "next", "+1", "1":
		return 1, nil
	}
	return 0, fmt.Errorf("invalid year step %q", value)
}

// ParseDayValue parses the value of a day cell: local-midnight epoch
// milliseconds or a YYYY-MM-DD date.
func ParseDayValue(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	loc = orLocal(loc)
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).In(loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day value %q", value)
	}
	return t, nil
}
