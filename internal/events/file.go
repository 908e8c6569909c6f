package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"cloudeng.io/logging/ctxlog"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// fileData is the on-disk layout of an event file.
type fileData struct {
	Events   []calendar.EventRecord `json:"events"`
	Metadata map[string]string      `json:"metadata,omitempty"`
}

// File is an editable event list kept in a JSON file of the form
// {"events": [{"date": ..., "color": ..., "title": ...}]}.
type File struct {
	mu     sync.RWMutex
	path   string
	loc    *time.Location
	events []calendar.EventRecord
	meta   map[string]string
}

// NewFile returns an event file backed by path. Call Load to read it.
func NewFile(path string, loc *time.Location) *File {
	if loc == nil {
		loc = time.Local
	}
	return &File{path: path, loc: loc, meta: map[string]string{}}
}

// Name implements Source.
func (f *File) Name() string {
	return f.path
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.path
}

// Load reads the event file. A missing file is an empty event list.
func (f *File) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.mu.Lock()
			f.events = nil
			f.mu.Unlock()
			return nil
		}
		return err
	}
	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	if fd.Metadata == nil {
		fd.Metadata = map[string]string{}
	}
	f.mu.Lock()
	f.events, f.meta = fd.Events, fd.Metadata
	f.mu.Unlock()
	return nil
}

// Events implements Source and returns the events of year and its
// neighbours, since the grid can show days of adjacent years.
func (f *File) Events(_ context.Context, year int) ([]calendar.EventRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return InYear(f.events, f.loc, year-1, year, year+1), nil
}

// All returns a copy of every event in the file.
func (f *File) All() []calendar.EventRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.events)
}

// Add appends an event and saves the file. The date is stored as a
// YYYY-MM-DD string.
func (f *File) Add(ctx context.Context, date, color, title string) (calendar.EventRecord, error) {
	t, err := time.ParseInLocation(time.DateOnly, date, f.loc)
	if err != nil {
		return calendar.EventRecord{}, fmt.Errorf("%s: %q", ErrInvalidDate, date)
	}
	if color == "" {
		return calendar.EventRecord{}, errors.New(ErrMissingColor)
	}
	rec := calendar.EventRecord{
		Date:  calendar.DateOf(calendar.CalendarDateOf(t)),
		Color: color,
		Title: title,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, rec)
	f.meta["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := f.saveLocked(ctx); err != nil {
		f.events = f.events[:len(f.events)-1]
		return calendar.EventRecord{}, err
	}
	return rec, nil
}

// Delete removes the events on date with the given color, or all events
// on date when color is empty, and saves the file. It returns the
// number of events removed.
func (f *File) Delete(ctx context.Context, date, color string) (int, error) {
	t, err := time.ParseInLocation(time.DateOnly, date, f.loc)
	if err != nil {
		return 0, fmt.Errorf("%s: %q", ErrInvalidDate, date)
	}
	day := calendar.CalendarDateOf(t)
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]calendar.EventRecord, 0, len(f.events))
	for _, ev := range f.events {
		d, ok := ev.Date.CalendarDate(f.loc)
		if ok && d == day && (color == "" || ev.Color == color) {
			continue
		}
		kept = append(kept, ev)
	}
	removed := len(f.events) - len(kept)
	if removed == 0 {
		return 0, ErrEventNotFound
	}
	previous := f.events
	f.events = kept
	f.meta["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := f.saveLocked(ctx); err != nil {
		f.events = previous
		return 0, err
	}
	return removed, nil
}

// Save writes the file, keeping the previous version as a backup.
func (f *File) Save(ctx context.Context) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.saveLocked(ctx)
}

func (f *File) saveLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(fileData{Events: f.events, Metadata: f.meta}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create event directory: %w", err)
	}
	if _, err := os.Stat(f.path); err == nil {
		if err := copyFile(f.path, f.path+BackupSuffix); err != nil {
			ctxlog.Logger(ctx).Warn("failed to create event file backup", "path", f.path, "error", err)
		}
	}
	tmpFile := f.path + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return err
	}
	return os.Rename(tmpFile, f.path)
}

func copyFile(from, to string) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, FilePermissions)
}
