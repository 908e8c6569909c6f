package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"cloudeng.io/datetime"
)

// EventRecord is a colored marker attached to a day.
type EventRecord struct {
	Date  EventDate `json:"date"`
	Color string    `json:"color"`
	Title string    `json:"title,omitempty"`
}

// EventDate is the date of an event in one of three encodings: a
// YYYY-MM-DD string, epoch milliseconds, or epoch milliseconds written
// as a string. In JSON it is either a string or a number.
type EventDate struct {
	text    string
	millis  int64
	numeric bool
}

// DateString returns an EventDate holding a string value.
func DateString(s string) EventDate {
	return EventDate{text: s}
}

// DateMillis returns an EventDate holding epoch milliseconds.
func DateMillis(ms int64) EventDate {
	return EventDate{millis: ms, numeric: true}
}

// DateOf returns the string encoding of d.
func DateOf(d datetime.CalendarDate) EventDate {
	return DateString(DateKey(d))
}

func (d EventDate) String() string {
	if d.numeric {
		return strconv.FormatInt(d.millis, 10)
	}
	return d.text
}

// IsZero reports whether no date was set.
func (d EventDate) IsZero() bool {
	return !d.numeric && d.text == ""
}

// Matches reports whether the event date denotes the day with the given
// key and local-midnight timestamp.
func (d EventDate) Matches(key string, millis int64) bool {
	if d.numeric {
		return d.millis == millis
	}
	return d.text == key || d.text == strconv.FormatInt(millis, 10)
}

// CalendarDate decodes the event date into a calendar date in loc.
func (d EventDate) CalendarDate(loc *time.Location) (datetime.CalendarDate, bool) {
	loc = orLocal(loc)
	if d.numeric {
		return CalendarDateOf(time.UnixMilli(d.millis).In(loc)), true
	}
	if t, err := time.ParseInLocation(time.DateOnly, d.text, loc); err == nil {
		return CalendarDateOf(t), true
	}
	if ms, err := strconv.ParseInt(d.text, 10, 64); err == nil {
		return CalendarDateOf(time.UnixMilli(ms).In(loc)), true
	}
	return datetime.CalendarDate(0), false
}

func (d EventDate) MarshalJSON() ([]byte, error) {
	if d.numeric {
		return []byte(strconv.FormatInt(d.millis, 10)), nil
	}
	return json.Marshal(d.text)
}

func (d *EventDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DateString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("event date must be a string or a number: %w", err)
	}
	if ms, err := n.Int64(); err == nil {
		*d = DateMillis(ms)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("invalid event timestamp %q", n)
	}
	*d = DateMillis(int64(f))
	return nil
}

// ResolveMarkers returns the distinct colors of the events falling on
// day, in the order first seen, at most MaxMarkers of them. Events
// without a color are skipped.
func ResolveMarkers(day datetime.CalendarDate, loc *time.Location, events []EventRecord) []string {
	colors := []string{}
	if len(events) == 0 {
		return colors
	}
	key := DateKey(day)
	millis := Midnight(day, orLocal(loc)).UnixMilli()
	for _, ev := range events {
		if len(colors) == MaxMarkers {
			break
		}
		if ev.Color == "" || !ev.Date.Matches(key, millis) {
			continue
		}
		if !slices.Contains(colors, ev.Color) {
			colors = append(colors, ev.Color)
		}
	}
	return colors
}
