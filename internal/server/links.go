package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

// GetLinks handles GET /links.
func (s *Server) GetLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.store.ListLinks()
	if err != nil {
		s.storeError(w, err)
		return
	}
	if links == nil {
		links = []task.Link{}
	}
	writeJSON(w, http.StatusOK, links)
}

type linkRequest struct {
	Source int64           `json:"source"`
	Target int64           `json:"target"`
	Type   json.RawMessage `json:"type"`
}

// CreateLink handles POST /links. type may be a name such as
// "start_to_start" or a numeric code, quoted or not.
func (s *Server) CreateLink(w http.ResponseWriter, r *http.Request) {
	var body linkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if body.Source <= 0 || body.Target <= 0 {
		writeError(w, http.StatusBadRequest, "source and target are required")
		return
	}
	code := strings.Trim(string(body.Type), `"`)
	if code == "null" {
		code = ""
	}
	typ, err := task.ParseLinkType(code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := s.store.AddLink(task.Link{Source: body.Source, Target: body.Target, Type: typ})
	switch {
	case errors.Is(err, store.ErrSelfLink), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateLink), errors.Is(err, store.ErrLinkCycle):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.storeError(w, err)
	default:
		writeJSON(w, http.StatusCreated, l)
	}
}

// DeleteLink handles DELETE /links/{linkID}.
func (s *Server) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["linkID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid link id")
		return
	}
	if err := s.store.DeleteLink(id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
