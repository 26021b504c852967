package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/task"
)

// GetHolidays handles GET /holidays and /holidays/public, optionally
// narrowed with ?year=.
func (s *Server) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year := 0
	if y := r.URL.Query().Get("year"); y != "" {
		var err error
		if year, err = strconv.Atoi(y); err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	hs, err := s.store.ListHolidays(year)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if hs == nil {
		hs = []calendar.Holiday{}
	}
	writeJSON(w, http.StatusOK, hs)
}

// CreateHoliday handles POST /holidays.
func (s *Server) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body calendar.Holiday
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	d := task.ParseDate(body.Date)
	if !d.Valid() || body.Name == "" {
		writeError(w, http.StatusBadRequest, "date (YYYY-MM-DD) and name are required")
		return
	}
	h, err := s.store.AddHoliday(d.Time(), body.Name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

// DeleteHoliday handles DELETE /holidays/{holidayID}.
func (s *Server) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["holidayID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid holiday id")
		return
	}
	if err := s.store.DeleteHoliday(id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportHolidays handles POST /holidays/import with a "YYYY-MM-DD, name"
// text body.
func (s *Server) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	hs, errs, err := calendar.ParseHolidays(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	imported, skipped, err := s.store.ImportHolidays(hs)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, importResult{Imported: imported, Skipped: skipped, Errors: errs})
}

// GetHolidaySettings handles GET /holidays/settings and its public alias.
func (s *Server) GetHolidaySettings(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.HolidaySettings()
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// UpdateHolidaySettings handles PUT /holidays/settings.
func (s *Server) UpdateHolidaySettings(w http.ResponseWriter, r *http.Request) {
	var cs calendar.Settings
	if err := json.NewDecoder(r.Body).Decode(&cs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := s.store.SetHolidaySettings(cs); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}
