package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/render"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/timeline"
)

// layout builds the chart for the request: zoom from ?zoom=, an optional
// ?from=&to= window, and the task filter parameters.
func (s *Server) layout(r *http.Request) (timeline.Layout, int, error) {
	q := r.URL.Query()
	zoom := timeline.ZoomDay
	if z := q.Get("zoom"); z != "" {
		var err error
		if zoom, err = timeline.ParseZoom(z); err != nil {
			return timeline.Layout{}, http.StatusBadRequest, err
		}
	}

	opt := timeline.Options{
		Config: timeline.DefaultConfig().Zoomed(zoom),
		Zoom:   zoom,
		Today:  s.now(),
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to := task.ParseDate(q.Get("from")), task.ParseDate(q.Get("to"))
		if !from.Valid() || !to.Valid() {
			return timeline.Layout{}, http.StatusBadRequest, fmt.Errorf("from and to must both be YYYY-MM-DD")
		}
		if to.Time().Before(from.Time()) {
			return timeline.Layout{}, http.StatusBadRequest, fmt.Errorf("to %s is before from %s", to, from)
		}
		// to is the last visible day.
		win := timeline.Range{Start: from.Time(), End: to.Time().AddDate(0, 0, 1)}
		if n := win.TotalDays(); n > timeline.MaxDays {
			return timeline.Layout{}, http.StatusBadRequest,
				fmt.Errorf("window spans %d days, at most %d allowed", n, timeline.MaxDays)
		}
		opt.Window = &win
	}

	tasks, err := s.store.ListTasks(filterFrom(r))
	if err != nil {
		return timeline.Layout{}, http.StatusInternalServerError, err
	}
	cal, err := s.store.Calendar()
	if err != nil {
		return timeline.Layout{}, http.StatusInternalServerError, err
	}
	opt.Calendar = cal
	if opt.Links, err = s.store.ListLinks(); err != nil {
		return timeline.Layout{}, http.StatusInternalServerError, err
	}

	entries := timeline.TreeEntries(hierarchy.Build(tasks))
	return timeline.ComputeEntries(entries, opt), http.StatusOK, nil
}

// GetLayout handles GET /gantt/layout.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	l, status, err := s.layout(r)
	if err != nil {
		s.layoutError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// GetGanttPNG handles GET /gantt.png.
func (s *Server) GetGanttPNG(w http.ResponseWriter, r *http.Request) {
	l, status, err := s.layout(r)
	if err != nil {
		s.layoutError(w, status, err)
		return
	}
	img, err := render.ForLayout(l)
	if errors.Is(err, render.ErrTooLarge) {
		writeError(w, http.StatusBadRequest, err.Error()+"; narrow the window or zoom out")
		return
	} else if err != nil {
		s.log.Error("png", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	timeline.Draw(l, img, timeline.DrawOptions{Theme: timeline.DefaultTheme(), Hover: -1})
	w.Header().Set("Content-Type", "image/png")
	if err := img.EncodePNG(w); err != nil {
		s.log.Error("encode png", "err", err)
	}
}

func (s *Server) layoutError(w http.ResponseWriter, status int, err error) {
	if status == http.StatusInternalServerError {
		s.storeError(w, err)
		return
	}
	writeError(w, status, err.Error())
}
