package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/render"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/timeline"
)

// One terminal cell covers cellWidth layout units across and one row
// height down.
const cellWidth = 10

// ganttConfig is the layout geometry used on the terminal: a two-line
// header and a 24-cell label column.
func ganttConfig(z timeline.Zoom) timeline.Config {
	cfg := timeline.DefaultConfig().Zoomed(z)
	cfg.HeaderHeight = 2 * cfg.RowHeight
	cfg.LeftPanelWidth = 24 * cellWidth
	return cfg
}

// scrollDays is how far one left/right press moves the window.
var scrollDays = map[timeline.Zoom]int{
	timeline.ZoomDay:   7,
	timeline.ZoomWeek:  28,
	timeline.ZoomMonth: 90,
}

type ganttModel struct {
	store  *store.Store
	width  int
	height int
	now    func() time.Time

	zoom     timeline.Zoom
	entries  []timeline.Entry
	cal      calendar.Calendar
	links    []task.Link
	origin   time.Time // first visible day; zero until data arrives
	top      int       // first visible entry
	cursor   int       // selected entry
	layout   timeline.Layout
	hoverRow int // row under the mouse, relative to top, or -1
}

func newGanttModel(s *store.Store) ganttModel {
	return ganttModel{store: s, now: time.Now, hoverRow: -1}
}

func (g *ganttModel) setSize(w, h int) {
	g.width = w
	g.height = h
	g.relayout()
}

type ganttDataMsg struct {
	tasks []task.Task
	cal   calendar.Calendar
	links []task.Link
}

func (g ganttModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := g.store.ListTasks(store.TaskFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load tasks: %v", err), isError: true}
		}
		cal, err := g.store.Calendar()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load calendar: %v", err), isError: true}
		}
		links, err := g.store.ListLinks()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load links: %v", err), isError: true}
		}
		return ganttDataMsg{tasks: tasks, cal: cal, links: links}
	}
}

// visibleRows is how many task rows fit under the header.
func (g ganttModel) visibleRows() int {
	return max(g.height-4, 1)
}

// visibleDays is how many day columns fit right of the label column.
func (g ganttModel) visibleDays() int {
	cfg := ganttConfig(g.zoom)
	cols := float64(g.width-2)*cellWidth - cfg.LeftPanelWidth
	return max(int(math.Ceil(cols/cfg.DayWidth)), 1)
}

// relayout recomputes the layout for the current window and scroll.
func (g *ganttModel) relayout() {
	if g.width == 0 {
		return
	}
	opt := timeline.Options{
		Config:   ganttConfig(g.zoom),
		Zoom:     g.zoom,
		Calendar: g.cal,
		Today:    g.now(),
		Links:    g.links,
	}
	if !g.origin.IsZero() {
		opt.Window = &timeline.Range{
			Start: g.origin,
			End:   g.origin.AddDate(0, 0, g.visibleDays()),
		}
	}
	end := min(g.top+g.visibleRows(), len(g.entries))
	g.layout = timeline.ComputeEntries(g.entries[min(g.top, end):end], opt)
}

func (g ganttModel) update(msg tea.Msg) (ganttModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ganttDataMsg:
		g.entries = timeline.TreeEntries(hierarchy.Build(msg.tasks))
		g.cal = msg.cal
		g.links = msg.links
		if g.origin.IsZero() {
			g.origin = timeline.DeriveRange(msg.tasks, g.now()).Start
		}
		if g.cursor >= len(g.entries) {
			g.cursor = max(0, len(g.entries)-1)
		}
		g.scrollToCursor()
		g.relayout()
		return g, nil

	case tea.MouseMsg:
		g.hoverRow = g.rowAtLine(msg.Y)
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && g.hoverRow >= 0 {
			g.cursor = g.top + g.hoverRow
		}
		return g, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if g.cursor > 0 {
				g.cursor--
			}
		case key.Matches(msg, keys.Down):
			if g.cursor < len(g.entries)-1 {
				g.cursor++
			}
		case key.Matches(msg, keys.Left):
			g.origin = g.origin.AddDate(0, 0, -scrollDays[g.zoom])
		case key.Matches(msg, keys.Right):
			g.origin = g.origin.AddDate(0, 0, scrollDays[g.zoom])
		case key.Matches(msg, keys.Today):
			g.origin = task.Day(g.now()).AddDate(0, 0, -7)
		case key.Matches(msg, keys.Zoom):
			g.zoom = g.zoom.Next()
		case key.Matches(msg, keys.Start):
			if g.cursor < len(g.entries) {
				t := g.entries[g.cursor].Task
				return g, func() tea.Msg { return trackTaskMsg{id: t.ID, subject: t.Subject} }
			}
			return g, nil
		default:
			return g, nil
		}
		g.scrollToCursor()
		g.relayout()
	}
	return g, nil
}

func (g *ganttModel) scrollToCursor() {
	n := g.visibleRows()
	if g.cursor < g.top {
		g.top = g.cursor
	}
	if g.cursor >= g.top+n {
		g.top = g.cursor - n + 1
	}
}

// rowAtLine maps a line of the view (0 = title) to a row of the current
// layout, or -1.
func (g ganttModel) rowAtLine(line int) int {
	h := ganttConfig(g.zoom).RowHeight
	y := float64(line-1)*h + h/2
	if i, ok := g.layout.RowAt(y); ok {
		return i
	}
	return -1
}

func (g ganttModel) view() string {
	title := titleStyle.Render("Gantt") + mutedStyle.Render(fmt.Sprintf("  zoom: %s", g.zoom))
	if !g.layout.Empty && len(g.layout.Columns) > 0 {
		title += mutedStyle.Render(fmt.Sprintf("  %s → %s", g.layout.Columns[0].Date, g.layout.Columns[len(g.layout.Columns)-1].Date))
	}

	rows := max(g.height-2, 3)
	c := render.NewCanvas(max(g.width-2, 10), rows, cellWidth, ganttConfig(g.zoom).RowHeight)

	hover := g.cursor - g.top
	if g.hoverRow >= 0 {
		hover = g.hoverRow
	}
	timeline.Draw(g.layout, c, timeline.DrawOptions{Theme: timeline.DefaultTheme(), Hover: hover})

	footer := mutedStyle.Render("  ←/→: scroll  t: today  z: zoom  s: track")
	if g.cursor < len(g.entries) {
		t := g.entries[g.cursor].Task
		footer = mutedStyle.Render(fmt.Sprintf("  %s  %s → %s  %d%%   ", truncate(t.Subject, 40), t.StartDate, t.DueDate, t.DoneRatio)) + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, " "+title, c.View(), footer)
}
