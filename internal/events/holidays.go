package events

import (
	"context"
	"time"

	"cloudeng.io/datetime"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// DefaultHolidayColor marks public holidays unless configured otherwise.
const DefaultHolidayColor = "red"

// Holiday is a named public holiday.
type Holiday struct {
	Date datetime.CalendarDate
	Name string
}

// NRWHolidays returns the public holidays of North Rhine-Westphalia for
// year, in calendar order.
func NRWHolidays(year int) []Holiday {
	easter := EasterSunday(year)
	fromEaster := func(days int, name string) Holiday {
		return Holiday{Date: calendar.CalendarDateOf(easter.AddDate(0, 0, days)), Name: name}
	}
	fixed := func(month, day int, name string) Holiday {
		return Holiday{Date: datetime.NewCalendarDate(year, datetime.Month(month), day), Name: name}
	}
	return []Holiday{
		fixed(1, 1, "Neujahr"),
		fromEaster(-2, "Karfreitag"),
		fromEaster(1, "Ostermontag"),
		fixed(5, 1, "Tag der Arbeit"),
		fromEaster(39, "Christi Himmelfahrt"),
		fromEaster(50, "Pfingstmontag"),
		fromEaster(60, "Fronleichnam"),
		fixed(10, 3, "Tag der Deutschen Einheit"),
		fixed(11, 1, "Allerheiligen"),
		fixed(12, 25, "1. Weihnachtstag"),
		fixed(12, 26, "2. Weihnachtstag"),
	}
}

// EasterSunday returns Easter Sunday of the Gregorian year at noon UTC
// (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	n := h + l - 7*m + 114
	return time.Date(year, time.Month(n/31), n%31+1, 12, 0, 0, 0, time.UTC)
}

// Holidays is a Source of public holiday markers.
type Holidays struct {
	Color string
}

// Name implements Source.
func (h Holidays) Name() string {
	return "holidays"
}

// Events implements Source, covering year and its neighbours.
func (h Holidays) Events(_ context.Context, year int) ([]calendar.EventRecord, error) {
	color := h.Color
	if color == "" {
		color = DefaultHolidayColor
	}
	var out []calendar.EventRecord
	for y := year - 1; y <= year+1; y++ {
		for _, hd := range NRWHolidays(y) {
			out = append(out, calendar.EventRecord{
				Date:  calendar.DateOf(hd.Date),
				Color: color,
				Title: hd.Name,
			})
		}
	}
	return out, nil
}
