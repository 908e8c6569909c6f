package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

func TestWriteCSV(t *testing.T) {
	records := []calendar.EventRecord{
		{Date: calendar.DateString("2025-01-15"), Color: "red", Title: "Trash, paper"},
		{Date: calendar.DateMillis(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC).UnixMilli()), Color: "blue"},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records, time.UTC); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}
	body := buf.String()
	for _, line := range []string{
		"date,color,title",
		`2025-01-15,red,"Trash, paper"`,
		"2025-01-20,blue,",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("CSV missing %q:\n%s", line, body)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, 2025, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"year":2025,"events":[]}` {
		t.Errorf("WriteJSON() = %s", got)
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Events(context.Context, int) ([]calendar.EventRecord, error) {
	return nil, errors.New("unreachable")
}

type staticSource []calendar.EventRecord

func (s staticSource) Name() string { return "static" }
func (s staticSource) Events(context.Context, int) ([]calendar.EventRecord, error) {
	return s, nil
}

type brokenLoader struct{ staticSource }

func (brokenLoader) Name() string { return "broken" }
func (brokenLoader) Load() error  { return errors.New("bad file") }

func TestCollection(t *testing.T) {
	ctx := context.Background()
	c := NewCollection(time.UTC,
		staticSource{
			{Date: calendar.DateString("2025-02-01"), Color: "green"},
			{Date: calendar.DateString("2024-12-31"), Color: "gray"},
		},
		failingSource{},
		Holidays{Color: "red"},
	)
	all := c.Events(ctx, 2025)
	if len(all) != 35 {
		t.Errorf("Events() = %d records, want 35", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Date.String() > all[i].Date.String() {
			t.Fatalf("events not sorted at %d: %v > %v", i, all[i-1].Date, all[i].Date)
		}
	}
	year := c.Year(ctx, 2025)
	if len(year) != 12 {
		t.Errorf("Year() = %d records, want 12", len(year))
	}
}

func TestCollectionLoadReportsAll(t *testing.T) {
	c := NewCollection(time.UTC, brokenLoader{}, Holidays{}, brokenLoader{})
	err := c.Load()
	if err == nil {
		t.Fatal("Load() should fail")
	}
	if got := strings.Count(err.Error(), "bad file"); got != 2 {
		t.Errorf("error reports %d failures, want 2: %v", got, err)
	}
}
