package store

import (
	"time"

	"github.com/sadopc/planr/internal/task"
)

// Task sources.
const (
	SourceRedmine = "redmine"
	SourceLocal   = "local"
)

type TimeEntry struct {
	ID        int64
	TaskID    int64
	StartTime time.Time
	EndTime   *time.Time
	Duration  int64 // seconds
	Notes     string
	Synced    bool
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	Source  string
	Project string
	Group   string
}

// Reorder moves a task to a new parent and position.
type Reorder struct {
	ID        int64
	Parent    task.ParentRef
	SortOrder int
}

// ProjectSummary counts cached tasks per project.
type ProjectSummary struct {
	Name      string
	TaskCount int
	Done      int
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	TaskID   *int64
	From     *time.Time
	To       *time.Time
	Unsynced bool
	Limit    int
}

// DailySummary represents aggregated time per task per day.
type DailySummary struct {
	Date         string
	TaskID       int64
	Subject      string
	TotalSeconds int64
	EntryCount   int
}
