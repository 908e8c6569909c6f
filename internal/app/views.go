package app

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("widecal").Funcs(template.FuncMap{
	"markerClass": func(color string) string { return "bg-" + color + "-800" },
	"gridClass": func(columns int) string {
		if columns == calendar.WideColumns {
			return "grid-cols-16"
		}
		return "grid-cols-7"
	},
}).ParseFS(templateFS, "templates/*.html"))

// CellView is a day or padding cell as sent to the browser.
type CellView struct {
	Kind     string   `json:"kind"`
	Date     string   `json:"date,omitempty"`
	Day      int64    `json:"day,omitempty"`
	Number   int      `json:"number,omitempty"`
	Selected bool     `json:"selected,omitempty"`
	Today    bool     `json:"today,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
	Markers  []string `json:"markers,omitempty"`
}

// PickerView is the rendered state of a widget.
type PickerView struct {
	Widget     string     `json:"widget"`
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Active     int        `json:"active"`
	Columns    int        `json:"columns"`
	Width      int        `json:"width,omitempty"`
	MonthNames []string   `json:"month_names"`
	Cells      []CellView `json:"cells"`
	Selected   string     `json:"selected,omitempty"`
}

// NewPickerView captures the current state of w.
func NewPickerView(w *Widget, loc *time.Location) PickerView {
	snap := w.Surface.Snapshot()
	year, month, _ := w.Controller.Displayed()
	v := PickerView{
		Widget:     w.Name,
		Year:       snap.Year,
		Month:      month,
		Active:     snap.Active,
		Columns:    snap.Columns,
		Width:      snap.Width,
		MonthNames: snap.Names,
		Cells:      make([]CellView, len(snap.Cells)),
	}
	if v.Year == 0 {
		v.Year = year
	}
	for i, c := range snap.Cells {
		cv := CellView{Kind: c.Kind.String()}
		if c.Kind == calendar.Day {
			cv.Date = c.Key()
			cv.Day = c.Millis
			cv.Number = c.Date.Day()
			cv.Selected, cv.Today, cv.Disabled = c.Selected, c.Today, c.Disabled
			cv.Markers = c.Markers
		}
		v.Cells[i] = cv
	}
	if sel, ok := w.Selection.SelectedDate(); ok {
		v.Selected = sel.In(loc).Format(time.DateOnly)
	}
	return v
}

type indexPage struct {
	Widgets []WidgetConfig
	Mode    string
}

type pickerPage struct {
	View PickerView
	Mode string
}

func renderIndex(w io.Writer, page indexPage) error {
	return templates.ExecuteTemplate(w, "index.html", page)
}

func renderPickerPage(w io.Writer, page pickerPage) error {
	return templates.ExecuteTemplate(w, "picker.html", page)
}

func renderWidget(w io.Writer, view PickerView) error {
	return templates.ExecuteTemplate(w, "widget", view)
}
