package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

// trackerModel is the Timer view: the running timer, today's totals and
// the most recent entries.
type trackerModel struct {
	store  *store.Store
	timer  timerModel
	width  int
	height int

	todayTotal    int64
	dailyGoal     int64
	todaySummary  []store.DailySummary
	recentEntries []store.TimeEntry
	tasks         []task.Task
	subjects      map[int64]string

	// Task picker state
	picking      bool
	pickerCursor int
}

func newTrackerModel(s *store.Store) trackerModel {
	return trackerModel{
		store:    s,
		timer:    newTimerModel(s),
		subjects: map[int64]string{},
	}
}

func (d trackerModel) Init() tea.Cmd {
	return tea.Batch(d.loadData(), d.loadRunning())
}

func (d *trackerModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d trackerModel) isRunning() bool { return d.timer.running() }
func (d trackerModel) isPaused() bool  { return d.timer.paused() }
func (d trackerModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type trackerDataMsg struct {
	todayTotal    int64
	dailyGoal     int64
	todaySummary  []store.DailySummary
	recentEntries []store.TimeEntry
	tasks         []task.Task
}

type runningEntryMsg struct {
	entry   *store.TimeEntry
	subject string
}

func (d trackerModel) loadData() tea.Cmd {
	return func() tea.Msg {
		total, _ := d.store.GetTodayTotal()

		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		summary, _ := d.store.GetDailySummary(dayStart, dayEnd)

		entries, _ := d.store.ListEntries(store.EntryFilter{Limit: 5})
		tasks, _ := d.store.ListTasks(store.TaskFilter{})

		return trackerDataMsg{
			todayTotal:    total,
			dailyGoal:     d.store.SettingInt(store.KeyDailyGoal, 0),
			todaySummary:  summary,
			recentEntries: entries,
			tasks:         tasks,
		}
	}
}

// loadRunning finds an entry left open by a previous session.
func (d trackerModel) loadRunning() tea.Cmd {
	return func() tea.Msg {
		e, err := d.store.GetRunningEntry()
		if err != nil || e == nil {
			return nil
		}
		subject := fmt.Sprintf("#%d", e.TaskID)
		if t, err := d.store.GetTask(e.TaskID); err == nil {
			subject = t.Subject
		}
		return runningEntryMsg{entry: e, subject: subject}
	}
}

func (d trackerModel) update(msg tea.Msg) (trackerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trackerDataMsg:
		d.todayTotal = msg.todayTotal
		d.dailyGoal = msg.dailyGoal
		d.todaySummary = msg.todaySummary
		d.recentEntries = msg.recentEntries
		d.tasks = msg.tasks
		d.subjects = make(map[int64]string, len(msg.tasks))
		for _, t := range msg.tasks {
			d.subjects[t.ID] = t.Subject
		}
		if d.pickerCursor >= len(d.tasks) {
			d.pickerCursor = max(0, len(d.tasks)-1)
		}
		return d, nil

	case runningEntryMsg:
		if !d.timer.running() {
			d.timer.adopt(msg.entry, msg.subject)
		}
		return d, nil

	case trackTaskMsg:
		return d.switchTo(msg.id, msg.subject)

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		d.timer.recordActivity()

		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, nil
			}
			if len(d.tasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No tasks yet. Sync with r or create one in the Tasks view.", isError: true}
				}
			}
			if len(d.tasks) == 1 {
				return d.startTimer(d.tasks[0].ID, d.tasks[0].Subject)
			}
			d.picking = true
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil
		}
	}
	return d, nil
}

func (d trackerModel) updatePicker(msg tea.KeyMsg) (trackerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.tasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(d.tasks) == 0 {
			d.picking = false
			return d, nil
		}
		t := d.tasks[d.pickerCursor]
		d.picking = false
		return d.startTimer(t.ID, t.Subject)
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

// switchTo stops whatever runs and starts timing the given task.
func (d trackerModel) switchTo(id int64, subject string) (trackerModel, tea.Cmd) {
	if d.timer.running() && d.timer.taskID() == id {
		return d, nil
	}
	var cmds []tea.Cmd
	if d.timer.running() {
		var cmd tea.Cmd
		d, cmd = d.stopTimer()
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	d, cmd = d.startTimer(id, subject)
	cmds = append(cmds, cmd)
	return d, tea.Batch(cmds...)
}

func (d trackerModel) startTimer(taskID int64, subject string) (trackerModel, tea.Cmd) {
	if err := d.timer.start(taskID, subject); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStartedMsg{} },
	)
}

func (d trackerModel) stopTimer() (trackerModel, tea.Cmd) {
	entry, err := d.timer.stop()
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	if entry == nil {
		return d, nil
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{entry: entry} },
	)
}

func (d trackerModel) subject(id int64) string {
	if s, ok := d.subjects[id]; ok {
		return s
	}
	return fmt.Sprintf("#%d", id)
}

func (d trackerModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d trackerModel) renderTimerPanel(w int) string {
	var timeDisplay string
	var indicator string

	if d.timer.running() {
		elapsed := d.timer.currentElapsed()
		timeStr := formatDuration(elapsed)

		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			if d.timer.idle() {
				indicator = warningStyle.Render("⏸  IDLE")
			} else {
				indicator = warningStyle.Render("⏸  PAUSED")
			}
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		taskLine := highlightStyle.Render(d.timer.subject())
		if d.timer.taskID() < 0 {
			taskLine += mutedStyle.Render(" (local)")
		} else {
			taskLine += mutedStyle.Render(fmt.Sprintf(" #%d", d.timer.taskID()))
		}

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			taskLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay = timerIdleStyle.Width(w - 6).Render("00:00:00")
	indicator = mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Press s to start tracking, or s on a task in the Tasks view")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (d trackerModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(d.todayTotal))
	header := fmt.Sprintf("%s  %s", title, total)
	if d.dailyGoal > 0 {
		goal := fmt.Sprintf("  %s of %s goal", formatHours(d.todayTotal), formatHours(d.dailyGoal))
		if d.todayTotal >= d.dailyGoal {
			header += successStyle.Render(goal)
		} else {
			header += mutedStyle.Render(goal)
		}
	}

	if len(d.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No entries today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, s := range d.todaySummary {
		colorDot := dot(taskColor(s.TaskID))
		row := fmt.Sprintf("  %s %-30s %s  (%d entries)",
			colorDot,
			truncate(s.Subject, 30),
			formatSeconds(s.TotalSeconds),
			s.EntryCount,
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d trackerModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recentEntries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recentEntries {
		dur := formatSeconds(e.Duration)
		startStr := e.StartTime.Local().Format("15:04")
		status := "✓"
		switch {
		case e.EndTime == nil:
			status = "●"
			dur = "running"
		case e.Synced:
			status = "↑"
		}
		row := fmt.Sprintf("  %s %s  %-30s %s", status, startStr, truncate(d.subject(e.TaskID), 30), dur)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d trackerModel) renderTaskPicker(w int) string {
	title := titleStyle.Render("Select Task")

	// Keep the cursor visible in long task lists.
	visible := max(d.height-16, 5)
	start := 0
	if d.pickerCursor >= visible {
		start = d.pickerCursor - visible + 1
	}
	end := min(start+visible, len(d.tasks))

	var rows []string
	rows = append(rows, title)
	for i := start; i < end; i++ {
		t := d.tasks[i]
		colorDot := dot(taskColor(t.ID))
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, colorDot, truncate(t.Subject, w-10))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
