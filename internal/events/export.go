package events

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// Export formats
const (
	FormatICS  = "ics"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ContentTypes maps export formats to their response content types.
var ContentTypes = map[string]string{
	FormatICS:  "text/calendar; charset=utf-8",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatJSON: "application/json; charset=utf-8",
}

// WriteCSV writes one row per record: date, color, title.
func WriteCSV(w io.Writer, records []calendar.EventRecord, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "color", "title"}); err != nil {
		return err
	}
	for _, rec := range records {
		date := rec.Date.String()
		if d, ok := rec.Date.CalendarDate(loc); ok {
			date = calendar.DateKey(d)
		}
		if err := cw.Write([]string{date, rec.Color, rec.Title}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records of year as {"year": ..., "events": [...]}.
func WriteJSON(w io.Writer, year int, records []calendar.EventRecord) error {
	if records == nil {
		records = []calendar.EventRecord{}
	}
	return json.NewEncoder(w).Encode(struct {
		Year   int                    `json:"year"`
		Events []calendar.EventRecord `json:"events"`
	}{year, records})
}
