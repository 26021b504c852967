package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

func filterFrom(r *http.Request) store.TaskFilter {
	q := r.URL.Query()
	return store.TaskFilter{
		Source:  q.Get("source"),
		Project: q.Get("project"),
		Group:   q.Get("group"),
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["taskID"], 10, 64)
	return id, err == nil
}

// GetTasks handles GET /tasks.
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(filterFrom(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks. The task is stored as a local task.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if t.Subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	t.ID = 0
	created, err := s.store.UpsertTask(t)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTask handles GET /tasks/{taskID}.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := s.store.GetTask(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetTree handles GET /tasks/tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(filterFrom(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	roots := hierarchy.Build(tasks)
	if roots == nil {
		roots = []*hierarchy.Node{}
	}
	writeJSON(w, http.StatusOK, roots)
}

// GetGroups handles GET /tasks/groups?by=status|group.
func (s *Server) GetGroups(w http.ResponseWriter, r *http.Request) {
	var key func(task.Task) string
	switch r.URL.Query().Get("by") {
	case "", "status":
		key = hierarchy.ByStatus
	case "group":
		key = hierarchy.ByCustomGroup
	default:
		writeError(w, http.StatusBadRequest, "by must be status or group")
		return
	}
	tasks, err := s.store.ListTasks(filterFrom(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	groups := hierarchy.GroupBy(tasks, key)
	if groups == nil {
		groups = []hierarchy.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// SetGroup handles PUT /tasks/{taskID}/group.
func (s *Server) SetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var body struct {
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := s.store.SetTaskGroup(id, body.Group); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderItem struct {
	ID        int64  `json:"id"`
	ParentID  *int64 `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
}

// ReorderTasks handles POST /tasks/reorder.
func (s *Server) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var items []reorderItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	moves := make([]store.Reorder, len(items))
	for i, it := range items {
		moves[i] = store.Reorder{ID: it.ID, SortOrder: it.SortOrder}
		if it.ParentID != nil {
			moves[i].Parent = task.ParentID(*it.ParentID)
		}
	}
	if err := s.store.ReorderTasks(moves); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(moves)})
}

// GetProjects handles GET /projects.
func (s *Server) GetProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.store.ListProjects()
	if err != nil {
		s.storeError(w, err)
		return
	}
	type project struct {
		Name      string `json:"name"`
		TaskCount int    `json:"task_count"`
		Done      int    `json:"done"`
	}
	out := make([]project, len(ps))
	for i, p := range ps {
		out[i] = project{Name: p.Name, TaskCount: p.TaskCount, Done: p.Done}
	}
	writeJSON(w, http.StatusOK, out)
}
