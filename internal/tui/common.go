package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/syncer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewGantt
	viewTimer
	viewReports
	viewSettings
)

var viewNames = []string{"Tasks", "Gantt", "Timer", "Reports", "Settings"}

// --- Messages ---

type timerStartedMsg struct {
	entry *store.TimeEntry
}

type timerStoppedMsg struct {
	entry *store.TimeEntry
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// tasksChangedMsg tells every task-backed view to reload from the store.
type tasksChangedMsg struct{}

type syncDoneMsg struct {
	result syncer.Result
	err    error
}

// trackTaskMsg asks the timer view to switch to a task picked elsewhere.
type trackTaskMsg struct {
	id      int64
	subject string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
