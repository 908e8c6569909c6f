package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cloudeng.io/logging/ctxlog"
)

// RequireEditMode validates that edit mode is enabled
func (s *Server) RequireEditMode(w http.ResponseWriter) bool {
	if !s.edit {
		http.Error(w, ErrEditModeDisabled, http.StatusForbidden)
		return false
	}
	return true
}

// parseYear reads the year query parameter, defaulting to the current
// year.
func (s *Server) parseYear(r *http.Request) (int, bool) {
	value := r.URL.Query().Get("year")
	if value == "" {
		return s.now().In(s.loc).Year(), true
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1 || year > 9999 {
		return 0, false
	}
	return year, true
}

// parseWidth reads a viewport width, returning 0 for missing or
// invalid values.
func parseWidth(value string) int {
	width, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || width < 0 {
		return 0
	}
	return width
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func wantsFragment(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.FormValue("fragment") == "1"
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.Logger(r.Context()).Error("error encoding response", "error", err)
		http.Error(w, ErrFailedToGenerateJSON, http.StatusInternalServerError)
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, status string) {
	writeJSON(w, r, map[string]string{"status": status})
}
