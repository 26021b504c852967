package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/redmine"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/syncer"
	"github.com/sadopc/planr/internal/timeline"
)

// Options wires the App to things outside the store.
type Options struct {
	// Syncer builds a Redmine syncer on demand, so credentials edited in
	// the settings view apply without a restart. Nil disables sync.
	Syncer func() (*syncer.Syncer, error)
	Query  redmine.Query
	Zoom   timeline.Zoom
	// ExportDir receives exported files; empty means the home directory.
	ExportDir string
	Log       *log.Logger
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	opts   Options
	log    *log.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	syncing       bool

	tasks    tasksModel
	gantt    ganttModel
	tracker  trackerModel
	reports  reportsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

type submitDoneMsg struct {
	result syncer.SubmitResult
	err    error
}

func NewApp(s *store.Store, opts Options) App {
	h := help.New()
	h.ShowAll = false

	l := opts.Log
	if l == nil {
		l = log.Default()
	}

	g := newGanttModel(s)
	g.zoom = opts.Zoom

	return App{
		store:      s,
		opts:       opts,
		log:        l,
		activeView: viewTasks,
		tasks:      newTasksModel(s),
		gantt:      g,
		tracker:    newTrackerModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.tasks.refresh(),
		a.gantt.refresh(),
		a.tracker.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tasks.setSize(a.width, contentHeight)
		a.gantt.setSize(a.width, contentHeight)
		a.tracker.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.MouseMsg:
		if a.activeView != viewGantt || a.exportPicking {
			return a, nil
		}
		msg.Y -= lipgloss.Height(a.renderHeader())
		var cmd tea.Cmd
		a.gantt, cmd = a.gantt.update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Sync):
			return a.startSync()
		case key.Matches(msg, keys.Submit):
			return a.startSubmit()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}
		for i, b := range keys.Views {
			if key.Matches(msg, b) {
				a.activeView = viewState(i)
				return a, a.refreshCurrentView()
			}
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Ticks always go to the timer, whichever view is active.
		var cmd tea.Cmd
		a.tracker, cmd = a.tracker.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case trackTaskMsg:
		var cmd tea.Cmd
		a.tracker, cmd = a.tracker.update(msg)
		a.activeView = viewTimer
		return a, cmd

	case trackerDataMsg, runningEntryMsg:
		var cmd tea.Cmd
		a.tracker, cmd = a.tracker.update(msg)
		return a, cmd

	case tasksDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case ganttDataMsg:
		var cmd tea.Cmd
		a.gantt, cmd = a.gantt.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case tasksChangedMsg:
		return a, tea.Batch(a.tasks.refresh(), a.gantt.refresh(), a.tracker.loadData())

	case syncDoneMsg:
		a.syncing = false
		if msg.err != nil {
			a.log.Error("sync failed", "err", msg.err)
			a.setStatus(fmt.Sprintf("Sync failed: %v", msg.err), true)
			return a, nil
		}
		a.setStatus(fmt.Sprintf("Synced %d issues (%d removed)", msg.result.Total, msg.result.Removed), false)
		return a, func() tea.Msg { return tasksChangedMsg{} }

	case submitDoneMsg:
		a.syncing = false
		if msg.err != nil {
			a.log.Error("submit failed", "err", msg.err)
			a.setStatus(fmt.Sprintf("Submit failed: %v", msg.err), true)
			return a, nil
		}
		r := msg.result
		a.setStatus(fmt.Sprintf("Submitted %d entries (%.2fh), %d failed, %d local skipped", r.Submitted, r.Hours, r.Failed, r.Skipped), false)
		return a, a.tracker.loadData()

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		if msg.isError {
			a.log.Warn(msg.text)
		}
		return a, nil

	case timerStoppedMsg:
		a.setStatus("Timer stopped", false)
		return a, nil

	case timerStartedMsg:
		a.setStatus("Timer started", false)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewGantt:
		a.gantt, cmd = a.gantt.update(msg)
	case viewTimer:
		a.tracker, cmd = a.tracker.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewGantt:
		return a.gantt.refresh()
	case viewTimer:
		return a.tracker.loadData()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) startSync() (tea.Model, tea.Cmd) {
	if a.opts.Syncer == nil {
		a.setStatus("Redmine sync is not available", true)
		return a, nil
	}
	if a.syncing {
		return a, nil
	}
	a.syncing = true
	a.setStatus("Syncing with Redmine...", false)
	newSyncer, q := a.opts.Syncer, a.opts.Query
	return a, func() tea.Msg {
		sy, err := newSyncer()
		if err != nil {
			return syncDoneMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res, err := sy.Run(ctx, q)
		return syncDoneMsg{result: res, err: err}
	}
}

func (a App) startSubmit() (tea.Model, tea.Cmd) {
	if a.opts.Syncer == nil {
		a.setStatus("Redmine sync is not available", true)
		return a, nil
	}
	if a.syncing {
		return a, nil
	}
	a.syncing = true
	a.setStatus("Submitting time entries...", false)
	newSyncer := a.opts.Syncer
	return a, func() tea.Msg {
		sy, err := newSyncer()
		if err != nil {
			return submitDoneMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res, err := sy.SubmitEntries(ctx)
		return submitDoneMsg{result: res, err: err}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTasks:
		content = a.tasks.view()
	case viewGantt:
		content = a.gantt.view()
	case viewTimer:
		content = a.tracker.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("planr")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.tracker.isRunning() {
		elapsed := a.tracker.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.tracker.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// exportFormats are the export picker entries, in display order.
var exportFormats = []string{
	"Time entries (CSV)",
	"Time entries (JSON)",
	"Task tree (CSV)",
	"Task tree (JSON)",
	"Gantt chart (PNG)",
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportPath(name, ext string) string {
	dir := a.opts.ExportDir
	if dir == "" {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, fmt.Sprintf("planr-%s-%s.%s", name, time.Now().Format("2006-01-02"), ext))
}

func (a App) doExport(format int) tea.Cmd {
	st, zoom := a.store, a.gantt.zoom
	return func() tea.Msg {
		tasks, err := st.ListTasks(store.TaskFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		roots := hierarchy.Build(tasks)

		var path string
		switch format {
		case 0, 1:
			entries, err := st.ListEntries(store.EntryFilter{})
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			subjects := make(map[int64]string, len(tasks))
			for _, t := range tasks {
				subjects[t.ID] = t.Subject
			}
			if format == 0 {
				path = a.exportPath("entries", "csv")
				err = export.EntriesToCSV(entries, subjects, path)
			} else {
				path = a.exportPath("entries", "json")
				err = export.EntriesToJSON(entries, subjects, path)
			}
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
		case 2:
			path = a.exportPath("tasks", "csv")
			if err := export.TreeToCSV(roots, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		case 3:
			path = a.exportPath("tasks", "json")
			if err := export.TreeToJSON(roots, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		default:
			cal, err := st.Calendar()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			links, err := st.ListLinks()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			l := timeline.ComputeEntries(timeline.TreeEntries(roots), timeline.Options{
				Config:   timeline.DefaultConfig().Zoomed(zoom),
				Zoom:     zoom,
				Calendar: cal,
				Today:    time.Now(),
				Links:    links,
			})
			path = a.exportPath("gantt", "png")
			if err := export.GanttToPNG(l, path); err != nil {
				return statusMsg{text: fmt.Sprintf("PNG error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
