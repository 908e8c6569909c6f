package calendar

import (
	"testing"
	"time"

	"cloudeng.io/datetime"
)

func countKinds(cells []DayCell) (leading, days, trailing int) {
	i := 0
	for ; i < len(cells) && cells[i].Kind == Padding; i++ {
		leading++
	}
	for ; i < len(cells) && cells[i].Kind == Day; i++ {
		days++
	}
	for ; i < len(cells) && cells[i].Kind == Padding; i++ {
		trailing++
	}
	if i != len(cells) {
		return -1, -1, -1
	}
	return
}

func TestBuildDayGridLayout(t *testing.T) {
	tests := []struct {
		name         string
		year, month  int
		columns      int
		wantLeading  int
		wantDays     int
		wantTrailing int
	}{
		{name: "January 2024 narrow", year: 2024, month: 0, columns: 7, wantLeading: 0, wantDays: 31, wantTrailing: 4},
		{name: "January 2024 wide", year: 2024, month: 0, columns: 16, wantLeading: 0, wantDays: 31, wantTrailing: 1},
		{name: "February 2024 leap", year: 2024, month: 1, columns: 7, wantLeading: 3, wantDays: 29, wantTrailing: 3},
		{name: "February 2023", year: 2023, month: 1, columns: 7, wantLeading: 2, wantDays: 28, wantTrailing: 5},
		{name: "September 2024 starts on Sunday", year: 2024, month: 8, columns: 7, wantLeading: 6, wantDays: 30, wantTrailing: 6},
		{name: "Month 12 rolls into next January", year: 2023, month: 12, columns: 7, wantLeading: 0, wantDays: 31, wantTrailing: 4},
		{name: "Month -1 rolls into previous December", year: 2024, month: -1, columns: 7, wantLeading: 4, wantDays: 31, wantTrailing: 0},
		{name: "Zero columns default to narrow", year: 2024, month: 0, columns: 0, wantLeading: 0, wantDays: 31, wantTrailing: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := BuildDayGrid(GridRequest{Year: tt.year, Month: tt.month, Columns: tt.columns, Location: time.UTC})
			leading, days, trailing := countKinds(cells)
			if leading != tt.wantLeading || days != tt.wantDays || trailing != tt.wantTrailing {
				t.Errorf("layout = %d/%d/%d, want %d/%d/%d",
					leading, days, trailing, tt.wantLeading, tt.wantDays, tt.wantTrailing)
			}
		})
	}
}

func TestBuildDayGridRollover(t *testing.T) {
	cells := BuildDayGrid(GridRequest{Year: 2023, Month: 12, Location: time.UTC})
	first := cells[0]
	want := datetime.NewCalendarDate(2024, 1, 1)
	if first.Kind != Day || first.Date != want {
		t.Errorf("first cell = %+v, want day %v", first, want)
	}
}

func TestBuildDayGridAlwaysAligned(t *testing.T) {
	for _, columns := range []int{NarrowColumns, WideColumns} {
		for year := 1999; year <= 2030; year++ {
			for month := 0; month < 12; month++ {
				cells := BuildDayGrid(GridRequest{Year: year, Month: month, Columns: columns, Location: time.UTC})
				if len(cells)%columns != 0 {
					t.Fatalf("%d-%02d with %d columns: %d cells", year, month+1, columns, len(cells))
				}
				first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
				leading, days, _ := countKinds(cells)
				if want := (int(first.Weekday()) + 6) % 7; leading != want {
					t.Fatalf("%d-%02d: leading padding %d, want %d", year, month+1, leading, want)
				}
				if want := int(datetime.DaysInMonth(year, datetime.Month(month+1))); days != want {
					t.Fatalf("%d-%02d: %d days, want %d", year, month+1, days, want)
				}
			}
		}
	}
}

func TestBuildDayGridClassification(t *testing.T) {
	loc := time.UTC
	cells := BuildDayGrid(GridRequest{
		Year:     2024,
		Month:    1,
		Selected: time.Date(2024, 2, 20, 15, 30, 0, 0, loc),
		Today:    time.Date(2024, 2, 10, 9, 0, 0, 0, loc),
		Bounds: Bounds{
			Min: time.Date(2024, 2, 15, 0, 0, 0, 0, loc),
			Max: time.Date(2024, 2, 25, 0, 0, 0, 0, loc),
		},
		Location: loc,
	})

	byDay := map[int]DayCell{}
	for _, c := range cells {
		if c.Kind == Day {
			byDay[c.Date.Day()] = c
		}
	}

	tests := []struct {
		day                      int
		selected, today, blocked bool
	}{
		{day: 10, today: true, blocked: true},
		{day: 14, blocked: true},
		{day: 15},
		{day: 20, selected: true},
		{day: 25},
		{day: 26, blocked: true},
	}
	for _, tt := range tests {
		c := byDay[tt.day]
		if c.Selected != tt.selected || c.Today != tt.today || c.Disabled != tt.blocked {
			t.Errorf("day %d: selected=%v today=%v disabled=%v, want %v/%v/%v",
				tt.day, c.Selected, c.Today, c.Disabled, tt.selected, tt.today, tt.blocked)
		}
	}

	if got, want := byDay[1].Millis, time.Date(2024, 2, 1, 0, 0, 0, 0, loc).UnixMilli(); got != want {
		t.Errorf("Millis = %d, want %d", got, want)
	}
	if byDay[1].Key() != "2024-02-01" {
		t.Errorf("Key() = %q", byDay[1].Key())
	}
}

func TestBuildDayGridNoSelection(t *testing.T) {
	cells := BuildDayGrid(GridRequest{Year: 2024, Month: 0, Location: time.UTC})
	for _, c := range cells {
		if c.Selected {
			t.Fatalf("cell %v selected without a selection", c.Date)
		}
	}
}

func TestBoundsCompareWholeDates(t *testing.T) {
	b := Bounds{Min: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	// Same day of month in an earlier month must be disabled.
	if !b.Excludes(datetime.NewCalendarDate(2024, 2, 10), time.UTC) {
		t.Error("2024-02-10 should be before 2024-03-05")
	}
	if b.Excludes(datetime.NewCalendarDate(2025, 1, 1), time.UTC) {
		t.Error("2025-01-01 should not be before 2024-03-05")
	}
}

func TestColumnsForWidth(t *testing.T) {
	if got := ColumnsForWidth(767); got != NarrowColumns {
		t.Errorf("ColumnsForWidth(767) = %d", got)
	}
	if got := ColumnsForWidth(768); got != WideColumns {
		t.Errorf("ColumnsForWidth(768) = %d", got)
	}
}
