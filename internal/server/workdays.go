package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/timeline"
)

// maxDueDays bounds the days parameter of /workdays/due; a due date is
// found by walking the calendar one day at a time.
const maxDueDays = 3650

// GetDueDate handles GET /workdays/due?start=YYYY-MM-DD&days=N.
func (s *Server) GetDueDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := task.ParseDate(q.Get("start"))
	days, err := strconv.Atoi(q.Get("days"))
	if !start.Valid() || err != nil {
		writeError(w, http.StatusBadRequest, "start (YYYY-MM-DD) and days are required")
		return
	}
	if days < 0 || days > maxDueDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 0 and %d", maxDueDays))
		return
	}
	cal, err := s.store.Calendar()
	if err != nil {
		s.storeError(w, err)
		return
	}
	due := cal.DueDate(start.Time(), days)
	writeJSON(w, http.StatusOK, map[string]any{
		"start_date":   start.String(),
		"working_days": days,
		"due_date":     due.Format(task.DateLayout),
	})
}

// GetWorkingDays handles GET /workdays/count?from=&to=.
func (s *Server) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := task.ParseDate(q.Get("from")), task.ParseDate(q.Get("to"))
	if !from.Valid() || !to.Valid() {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}
	if span := (timeline.Range{Start: from.Time(), End: to.Time()}).TotalDays(); span > timeline.MaxDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("range spans %d days, at most %d allowed", span, timeline.MaxDays))
		return
	}
	cal, err := s.store.Calendar()
	if err != nil {
		s.storeError(w, err)
		return
	}
	hs := cal.HolidaysBetween(from.Time(), to.Time())
	if hs == nil {
		hs = []calendar.Holiday{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":         from.String(),
		"to":           to.String(),
		"working_days": cal.WorkingDaysBetween(from.Time(), to.Time()),
		"holidays":     hs,
	})
}
