package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/klabast/wb-services/widecal/internal/calendar"
	"github.com/klabast/wb-services/widecal/internal/events"
	"github.com/klabast/wb-services/widecal/internal/locale"
)

// Characters per day cell in the terminal.
const cellWidth = 5

// GridOptions selects the month printed by the grid subcommand.
type GridOptions struct {
	Year     int
	Month    int // zero based
	Language string
	Columns  int
	Holidays bool
	Today    time.Time
	Location *time.Location
	Locales  calendar.LocaleSource
}

// Grid handles the grid subcommand: it prints the day grid of a month,
// using the wide layout when the terminal has room for it.
func Grid(args []string) error {
	now := time.Now()
	fs := flag.NewFlagSet("grid", flag.ContinueOnError)
	year := fs.Int("year", now.Year(), "Year to show")
	month := fs.Int("month", int(now.Month()), "Month to show (1-12)")
	lang := fs.String("lang", calendar.DefaultLanguage, "Language of the month names")
	columns := fs.Int("columns", 0, "Columns of the grid (0: from terminal width)")
	holidays := fs.Bool("holidays", true, "Mark public holidays")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: widecal grid [OPTIONS]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *month < 1 || *month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", *month)
	}
	if *columns == 0 {
		*columns = terminalColumns(int(os.Stdout.Fd()))
	}
	return PrintGrid(os.Stdout, GridOptions{
		Year:     *year,
		Month:    *month - 1,
		Language: *lang,
		Columns:  *columns,
		Holidays: *holidays,
		Today:    now,
		Location: time.Local,
		Locales:  locale.Builtin(),
	})
}

// terminalColumns picks 16 columns when the terminal is wide enough for
// them and 7 otherwise.
func terminalColumns(fd int) int {
	width, _, err := term.GetSize(fd)
	if err != nil || width < calendar.WideColumns*cellWidth {
		return calendar.NarrowColumns
	}
	return calendar.WideColumns
}

// PrintGrid writes the month names line, the year and the day grid of
// opts. Today is wrapped in brackets and days with markers get a '*'.
func PrintGrid(w io.Writer, opts GridOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	var records []calendar.EventRecord
	if opts.Holidays {
		records, _ = events.Holidays{}.Events(context.Background(), opts.Year)
	}
	cells := calendar.BuildDayGrid(calendar.GridRequest{
		Year:     opts.Year,
		Month:    opts.Month,
		Today:    opts.Today,
		Events:   records,
		Columns:  opts.Columns,
		Location: loc,
	})
	columns := opts.Columns
	if columns <= 0 {
		columns = calendar.NarrowColumns
	}

	names := calendar.MonthNames(opts.Locales, opts.Language)
	labels := make([]string, len(names))
	for i, name := range names {
		if i == opts.Month {
			labels[i] = "[" + name + "]"
		} else {
			labels[i] = name
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", opts.Year, strings.Join(labels, " "))
	for i, c := range cells {
		b.WriteString(formatCell(c))
		if (i+1)%columns == 0 {
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatCell(c calendar.DayCell) string {
	if c.Kind != calendar.Day {
		return strings.Repeat(" ", cellWidth)
	}
	mark := " "
	if len(c.Markers) > 0 {
		mark = "*"
	}
	if c.Today {
		return fmt.Sprintf("[%2d]%s", c.Date.Day(), mark)
	}
	return fmt.Sprintf(" %2d %s", c.Date.Day(), mark)
}
