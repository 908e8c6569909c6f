package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/go-chi/chi/v5"

	"github.com/klabast/wb-services/widecal/internal/events"
)

// ServeIndex lists the configured widgets.
func (s *Server) ServeIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := renderIndex(&buf, indexPage{Widgets: s.cfg.Widgets, Mode: s.Mode()}); err != nil {
		ctxlog.Logger(r.Context()).Error("error rendering index", "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// widget looks up the widget named in the URL for the request's session.
func (s *Server) widget(w http.ResponseWriter, r *http.Request) (*Widget, bool) {
	name := chi.URLParam(r, "widget")
	if _, ok := s.cfg.Widget(name); !ok {
		http.Error(w, ErrUnknownWidget, http.StatusNotFound)
		return nil, false
	}
	return s.registry.Get(SessionID(r.Context()), name), true
}

// ServePicker renders the page of one widget, restoring the month it
// showed last if that was recent enough.
// URL: /picker/{widget}?width=1440
func (s *Server) ServePicker(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}
	ctx := ctxlog.WithAttributes(r.Context(), "widget", widget.Name)
	if width := parseWidth(r.URL.Query().Get("width")); width > 0 {
		widget.Surface.SetWidth(width)
	}
	widget.Open(ctx)

	var buf bytes.Buffer
	page := pickerPage{View: NewPickerView(widget, s.loc), Mode: s.Mode()}
	if err := renderPickerPage(&buf, page); err != nil {
		ctxlog.Logger(ctx).Error("error rendering picker", "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// intentValue returns the form field carrying the value of intent.
func intentValue(r *http.Request, intent string) (string, bool) {
	switch intent {
	case IntentMonth:
		return r.FormValue("month"), true
	case IntentYear:
		return r.FormValue("step"), true
	case IntentDay:
		if v := r.FormValue("day"); v != "" {
			return v, true
		}
		return r.FormValue("date"), true
	}
	return "", false
}

// HandleIntent applies a month, year or day click to a widget.
// URL: POST /picker/{widget}/{month|year|day}
func (s *Server) HandleIntent(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	intent := chi.URLParam(r, "intent")
	value, ok := intentValue(r, intent)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown intent %q", intent), http.StatusNotFound)
		return
	}
	ctx := ctxlog.WithAttributes(r.Context(), "widget", widget.Name, "intent", intent)
	widget.Resize(ctx, parseWidth(r.FormValue("width")))
	widget.EnsureOpen(ctx)
	if !widget.Dispatch(ctx, intent, value, s.loc) {
		ctxlog.Logger(ctx).Warn("intent not bound", "value", value)
	}

	switch {
	case wantsJSON(r):
		writeJSON(w, r, NewPickerView(widget, s.loc))
	case wantsFragment(r):
		var buf bytes.Buffer
		if err := renderWidget(&buf, NewPickerView(widget, s.loc)); err != nil {
			ctxlog.Logger(ctx).Error("error rendering widget", "error", err)
			http.Error(w, ErrInternalServer, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	default:
		target := "/picker/" + url.PathEscape(widget.Name)
		if width := widget.Surface.Width(); width > 0 {
			target += "?width=" + strconv.Itoa(width)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// HandlePickerJSON returns the rendered state of a widget.
// URL: /api/picker/{widget}
func (s *Server) HandlePickerJSON(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}
	ctx := ctxlog.WithAttributes(r.Context(), "widget", widget.Name)
	widget.Resize(ctx, parseWidth(r.URL.Query().Get("width")))
	widget.EnsureOpen(ctx)
	writeJSON(w, r, NewPickerView(widget, s.loc))
}

// HandleEvents returns the marker events of a year.
// Query param: year (optional, defaults to current year)
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	year, ok := s.parseYear(r)
	if !ok {
		http.Error(w, ErrInvalidYear, http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := events.WriteJSON(&buf, year, s.events.Year(r.Context(), year)); err != nil {
		ctxlog.Logger(r.Context()).Error("error encoding events", "error", err)
		http.Error(w, ErrFailedToGenerateJSON, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", events.ContentTypes[events.FormatJSON])
	_, _ = buf.WriteTo(w)
}

// HandleExport downloads the events of a year.
// Query params: year (optional), format (ics, csv or json; default ics)
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	year, ok := s.parseYear(r)
	if !ok {
		http.Error(w, ErrInvalidYear, http.StatusBadRequest)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = events.FormatICS
	}
	contentType, ok := events.ContentTypes[format]
	if !ok {
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
		return
	}

	records := s.events.Year(r.Context(), year)
	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case events.FormatICS:
		err = events.WriteICS(&buf, fmt.Sprintf("widecal %d", year), records, s.loc)
	case events.FormatCSV:
		err = events.WriteCSV(&buf, records, s.loc)
	case events.FormatJSON:
		err = events.WriteJSON(&buf, year, records)
	}
	if err != nil {
		ctxlog.Logger(r.Context()).Error("error exporting events", "format", format, "year", year, "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"widecal_%d.%s\"", year, format))
	_, _ = buf.WriteTo(w)
}

type eventRequest struct {
	Date  string `json:"date"`
	Color string `json:"color"`
	Title string `json:"title"`
}

func (s *Server) decodeEventRequest(w http.ResponseWriter, r *http.Request) (eventRequest, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return req, false
	}
	if _, err := time.ParseInLocation(time.DateOnly, req.Date, s.loc); err != nil {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// AddEvent adds an event to the event file (edit mode only)
func (s *Server) AddEvent(w http.ResponseWriter, r *http.Request) {
	if !s.RequireEditMode(w) {
		return
	}
	if s.file == nil {
		http.Error(w, ErrNoEventFile, http.StatusNotFound)
		return
	}
	req, ok := s.decodeEventRequest(w, r)
	if !ok {
		return
	}
	if req.Color == "" {
		http.Error(w, events.ErrMissingColor, http.StatusBadRequest)
		return
	}
	if _, err := s.file.Add(r.Context(), req.Date, req.Color, req.Title); err != nil {
		ctxlog.Logger(r.Context()).Error("error saving event", "date", req.Date, "error", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}
	s.registry.InvalidateEvents()
	writeStatus(w, r, "ok")
}

// DeleteEvent removes events from the event file (edit mode only). An
// empty color removes every event of the day.
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !s.RequireEditMode(w) {
		return
	}
	if s.file == nil {
		http.Error(w, ErrNoEventFile, http.StatusNotFound)
		return
	}
	req, ok := s.decodeEventRequest(w, r)
	if !ok {
		return
	}
	n, err := s.file.Delete(r.Context(), req.Date, req.Color)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.Error(w, events.ErrNotFound, http.StatusNotFound)
			return
		}
		ctxlog.Logger(r.Context()).Error("error saving event file", "date", req.Date, "error", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}
	s.registry.InvalidateEvents()
	writeJSON(w, r, map[string]any{"status": "ok", "removed": n})
}

// ReloadEvents re-reads all event sources from disk (edit mode only).
func (s *Server) ReloadEvents(w http.ResponseWriter, r *http.Request) {
	if !s.RequireEditMode(w) {
		return
	}
	if err := s.events.Load(); err != nil {
		ctxlog.Logger(r.Context()).Warn("error reloading events", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.registry.InvalidateEvents()
	writeStatus(w, r, "ok")
}
