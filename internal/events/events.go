// Package events provides the sources of the colored day markers shown in
// the calendar: an editable JSON event file, imported ICS calendars and
// public holidays. It also writes events out as ICS, CSV and JSON.
package events

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// Constants
const (
	TmpSuffix       = ".tmp"
	BackupSuffix    = ".backup"
	FilePermissions = 0644

	// Error messages
	ErrInvalidDate  = "invalid event date"
	ErrMissingColor = "event color is required"
	ErrNotFound     = "event not found"
)

// ErrEventNotFound is returned by File.Delete when no event matches.
var ErrEventNotFound = errors.New(ErrNotFound)

// Source provides the marker events relevant for a displayed year.
type Source interface {
	Name() string
	Events(ctx context.Context, year int) ([]calendar.EventRecord, error)
}

// InYear returns the events whose date falls into one of years.
// Events with dates that cannot be decoded are dropped.
func InYear(records []calendar.EventRecord, loc *time.Location, years ...int) []calendar.EventRecord {
	var out []calendar.EventRecord
	for _, r := range records {
		d, ok := r.Date.CalendarDate(loc)
		if !ok {
			continue
		}
		for _, y := range years {
			if d.Year() == y {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// SortByDate sorts records by calendar date, keeping the original order
// of records on the same day. Records with undecodable dates go last.
func SortByDate(records []calendar.EventRecord, loc *time.Location) {
	key := func(r calendar.EventRecord) string {
		d, ok := r.Date.CalendarDate(loc)
		if !ok {
			return "~"
		}
		return calendar.DateKey(d)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return key(records[i]) < key(records[j])
	})
}
