package task

import (
	"encoding/json"
	"fmt"
)

// Task is a unit of work fetched from the tracker or planned locally.
type Task struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description,omitempty"`
	Parent         ParentRef `json:"-"`
	StartDate      Date      `json:"start_date"`
	DueDate        Date      `json:"due_date"`
	EstimatedHours *float64  `json:"estimated_hours"`
	DoneRatio      int       `json:"done_ratio"`
	StatusName     string    `json:"status_name,omitempty"`
	StatusColor    string    `json:"status_color,omitempty"`
	ProjectName    string    `json:"project_name,omitempty"`
	Group          string    `json:"custom_group,omitempty"`
	SortOrder      int       `json:"sort_order"`
}

// ParentRef is the link from a task to its parent. The zero value means
// "no parent".
type ParentRef struct {
	id  int64
	set bool
}

// NoParent returns an empty reference.
func NoParent() ParentRef { return ParentRef{} }

// ParentID returns a reference to the task with the given id.
func ParentID(id int64) ParentRef { return ParentRef{id: id, set: true} }

// Get returns the referenced id and whether the reference is set.
func (p ParentRef) Get() (int64, bool) { return p.id, p.set }

// IsSet reports whether the task has a parent.
func (p ParentRef) IsSet() bool { return p.set }

func (p ParentRef) String() string {
	if !p.set {
		return "none"
	}
	return fmt.Sprintf("#%d", p.id)
}

// wire is the JSON shape. Trackers disagree on how parents are encoded, so
// both parent_id and parent.id are read; only parent_id is written.
type wire struct {
	ID             int64    `json:"id"`
	Subject        string   `json:"subject"`
	Description    string   `json:"description,omitempty"`
	ParentID       *int64   `json:"parent_id"`
	ParentObj      *idRef   `json:"parent,omitempty"`
	StartDate      Date     `json:"start_date"`
	DueDate        Date     `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
	DoneRatio      *float64 `json:"done_ratio,omitempty"`
	Progress       *float64 `json:"progress,omitempty"`
	StatusName     string   `json:"status_name,omitempty"`
	StatusColor    string   `json:"status_color,omitempty"`
	ProjectName    string   `json:"project_name,omitempty"`
	Group          string   `json:"custom_group,omitempty"`
	SortOrder      int      `json:"sort_order"`
}

type idRef struct {
	ID int64 `json:"id"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := wire{
		ID:             t.ID,
		Subject:        t.Subject,
		Description:    t.Description,
		StartDate:      t.StartDate,
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		StatusName:     t.StatusName,
		StatusColor:    t.StatusColor,
		ProjectName:    t.ProjectName,
		Group:          t.Group,
		SortOrder:      t.SortOrder,
	}
	if id, ok := t.Parent.Get(); ok {
		w.ParentID = &id
	}
	ratio := float64(t.DoneRatio)
	w.DoneRatio = &ratio
	return json.Marshal(w)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}
	*t = Task{
		ID:             w.ID,
		Subject:        w.Subject,
		Description:    w.Description,
		StartDate:      w.StartDate,
		DueDate:        w.DueDate,
		EstimatedHours: w.EstimatedHours,
		StatusName:     w.StatusName,
		StatusColor:    w.StatusColor,
		ProjectName:    w.ProjectName,
		Group:          w.Group,
		SortOrder:      w.SortOrder,
	}
	switch {
	case w.ParentID != nil:
		t.Parent = ParentID(*w.ParentID)
	case w.ParentObj != nil:
		t.Parent = ParentID(w.ParentObj.ID)
	}
	switch {
	case w.DoneRatio != nil:
		t.DoneRatio = ClampRatio(int(*w.DoneRatio))
	case w.Progress != nil:
		t.DoneRatio = ClampRatio(int(*w.Progress))
	}
	return nil
}

// ClampRatio limits a completion percentage to 0..100.
func ClampRatio(r int) int {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// HasSpan reports whether both dates are present and valid.
func (t Task) HasSpan() bool {
	return t.StartDate.Valid() && t.DueDate.Valid()
}
