package events

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// ICS constants
const (
	ICSProductID       = "-//widecal//Calendar Markers//EN"
	ICSUIDDomain       = "widecal.local"
	DefaultImportColor = "blue"

	propColor         = "COLOR"
	propCalendarName  = "X-WR-CALNAME"
	propCalendarScale = "CALSCALE"
)

// ParseICS reads every VEVENT of an iCalendar stream as a marker event on
// the day its DTSTART falls on in loc. Events get color, or their own
// COLOR property when color is empty, or DefaultImportColor.
func ParseICS(r io.Reader, color string, loc *time.Location) ([]calendar.EventRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	var records []calendar.EventRecord
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}
		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			start := comp.Props.Get(ical.PropDateTimeStart)
			if start == nil {
				continue
			}
			t, err := start.DateTime(loc)
			if err != nil {
				continue
			}
			rec := calendar.EventRecord{
				Date:  calendar.DateOf(calendar.CalendarDateOf(t.In(loc))),
				Color: color,
			}
			if summary := comp.Props.Get(ical.PropSummary); summary != nil {
				rec.Title = summary.Value
			}
			if rec.Color == "" {
				if p := comp.Props.Get(propColor); p != nil && p.Value != "" {
					rec.Color = p.Value
				} else {
					rec.Color = DefaultImportColor
				}
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// ICSFile is a Source backed by an .ics file, read by Load.
type ICSFile struct {
	Path  string
	Color string

	mu     sync.RWMutex
	loc    *time.Location
	events []calendar.EventRecord
}

// NewICSFile returns an ICS source for path whose events are marked
// with color.
func NewICSFile(path, color string, loc *time.Location) *ICSFile {
	if loc == nil {
		loc = time.Local
	}
	return &ICSFile{Path: path, Color: color, loc: loc}
}

// Name implements Source.
func (s *ICSFile) Name() string {
	return s.Path
}

// Load parses the file.
func (s *ICSFile) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := ParseICS(f, s.Color, s.loc)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}
	s.mu.Lock()
	s.events = records
	s.mu.Unlock()
	return nil
}

// Events implements Source.
func (s *ICSFile) Events(_ context.Context, year int) ([]calendar.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InYear(s.events, s.loc, year-1, year, year+1), nil
}

// WriteICS writes records as all-day events of a calendar called name.
// Records whose date cannot be decoded are skipped.
func WriteICS(w io.Writer, name string, records []calendar.EventRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ICSProductID)
	cal.Props.SetText(propCalendarScale, "GREGORIAN")
	if name != "" {
		// Extension properties get VALUE=TEXT from SetText.
		prop := ical.NewProp(propCalendarName)
		prop.SetText(name)
		prop.Params.Del(ical.ParamValue)
		cal.Props.Set(prop)
	}
	stamp := time.Now().UTC()
	seen := map[string]int{}
	for _, rec := range records {
		d, ok := rec.Date.CalendarDate(loc)
		if !ok {
			continue
		}
		day := calendar.Midnight(d, loc)
		key := calendar.DateKey(d)
		base := key + "-" + uidPart(rec.Color)
		uid := base + "@" + ICSUIDDomain
		if n := seen[base]; n > 0 {
			uid = fmt.Sprintf("%s-%d@%s", base, n, ICSUIDDomain)
		}
		seen[base]++

		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, uid)
		ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ev.Props.SetDate(ical.PropDateTimeStart, day)
		ev.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
		summary := rec.Title
		if summary == "" {
			summary = rec.Color
		}
		ev.Props.SetText(ical.PropSummary, summary)
		if rec.Color != "" {
			ev.Props.SetText(propColor, rec.Color)
		}
		cal.Children = append(cal.Children, ev.Component)
	}
	return ical.NewEncoder(w).Encode(cal)
}

func uidPart(s string) string {
	if s == "" {
		return "event"
	}
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '@' {
			return '_'
		}
		return r
	}, s)
}
