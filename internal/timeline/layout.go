// Package timeline maps tasks with start and due dates onto a day grid and
// draws the resulting Gantt chart onto a Surface.
package timeline

import (
	"math"
	"time"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/task"
)

// Entry is one timeline row before layout.
type Entry struct {
	Task  task.Task
	Depth int
}

// Entries wraps a flat task list as root-level rows.
func Entries(tasks []task.Task) []Entry {
	out := make([]Entry, len(tasks))
	for i, t := range tasks {
		out[i] = Entry{Task: t}
	}
	return out
}

// FromTree turns visible tree rows into timeline rows, keeping indentation.
func FromTree(rows []hierarchy.Row) []Entry {
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Task: r.Node.Task, Depth: r.Depth}
	}
	return out
}

// TreeEntries lists every node of the forest depth-first, ignoring any
// collapsed state.
func TreeEntries(roots []*hierarchy.Node) []Entry {
	var out []Entry
	hierarchy.Walk(roots, func(n *hierarchy.Node, depth int) {
		out = append(out, Entry{Task: n.Task, Depth: depth})
	})
	return out
}

// Options are the inputs besides the task list.
type Options struct {
	Config   Config
	Zoom     Zoom
	Calendar calendar.Calendar
	Today    time.Time
	// Window pins the date range instead of deriving it from the tasks.
	Window *Range
	// Links are drawn as arrows between the bars they join.
	Links []task.Link
}

// Column is one day of the grid.
type Column struct {
	Index int     `json:"index"`
	Date  string  `json:"date"`
	X     float64 `json:"x"`
	// Tick marks a labelled boundary at the current zoom.
	Tick  bool   `json:"tick"`
	Label string `json:"label,omitempty"`
	// NonWorking and Holiday are only computed at day zoom.
	NonWorking bool   `json:"non_working"`
	Holiday    string `json:"holiday,omitempty"`
	Today      bool   `json:"today"`
}

// Bar is the drawn span of a task.
type Bar struct {
	StartIndex    int     `json:"start_index"`
	EndIndex      int     `json:"end_index"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	ProgressWidth float64 `json:"progress_width"`
	Color         string  `json:"color,omitempty"`
}

// Row is one task line of the chart. Bar is nil when the task has no
// usable start and due date.
type Row struct {
	Index int       `json:"index"`
	Task  task.Task `json:"task"`
	Depth int       `json:"depth"`
	Y     float64   `json:"y"`
	Bar   *Bar      `json:"bar"`
}

// Point is a position in layout units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Arrow is the routed path of a dependency link, from the source bar to
// the target bar.
type Arrow struct {
	Link   task.Link `json:"link"`
	Points []Point   `json:"points"`
}

// Layout is the computed grid. It holds only values, so two layouts of the
// same input compare equal.
type Layout struct {
	Config  Config   `json:"config"`
	Zoom    Zoom     `json:"zoom"`
	Range   Range    `json:"range"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
	Links   []Arrow  `json:"links"`
	// TodayIndex is the column of Options.Today; TodayVisible reports
	// whether it falls inside the range.
	TodayIndex   int     `json:"today_index"`
	TodayVisible bool    `json:"today_visible"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Empty        bool    `json:"empty"`
}

// Compute lays out a flat task list.
func Compute(tasks []task.Task, opt Options) Layout {
	return ComputeEntries(Entries(tasks), opt)
}

// ComputeEntries lays out rows in the given order.
func ComputeEntries(entries []Entry, opt Options) Layout {
	cfg := opt.Config
	l := Layout{Config: cfg, Zoom: opt.Zoom}
	if len(entries) == 0 {
		l.Empty = true
		return l
	}

	tasks := make([]task.Task, len(entries))
	for i, e := range entries {
		tasks[i] = e.Task
	}
	today := task.Day(opt.Today)
	if opt.Window != nil {
		l.Range = Range{Start: task.Day(opt.Window.Start), End: task.Day(opt.Window.End)}
	} else {
		l.Range = DeriveRange(tasks, today)
	}
	// An inverted window has no columns; rows still get their labels.
	l.Range = l.Range.clamp()
	total := l.Range.TotalDays()

	l.TodayIndex = l.Range.Index(today)
	l.TodayVisible = l.Range.Contains(l.TodayIndex)

	l.Columns = make([]Column, total)
	for i := 0; i < total; i++ {
		d := l.Range.Date(i)
		col := Column{
			Index: i,
			Date:  d.Format(task.DateLayout),
			X:     l.ColumnX(i),
			Today: l.TodayVisible && i == l.TodayIndex,
		}
		col.Tick, col.Label = tick(opt.Zoom, d, i)
		if opt.Zoom == ZoomDay {
			if h, ok := opt.Calendar.Holiday(d); ok {
				col.NonWorking = true
				col.Holiday = h.Name
			}
			if opt.Calendar.IsExcludedWeekday(d) {
				col.NonWorking = true
			}
		}
		l.Columns[i] = col
	}

	l.Rows = make([]Row, len(entries))
	for i, e := range entries {
		row := Row{
			Index: i,
			Task:  e.Task,
			Depth: e.Depth,
			Y:     cfg.HeaderHeight + float64(i)*cfg.RowHeight,
		}
		row.Bar = l.bar(e.Task, row.Y)
		l.Rows[i] = row
	}
	l.Links = l.arrows(opt.Links)

	l.Width = cfg.LeftPanelWidth + float64(total)*cfg.DayWidth
	l.Height = cfg.HeaderHeight + float64(len(entries))*cfg.RowHeight
	return l
}

// ColumnX is the left edge of column i.
func (l Layout) ColumnX(i int) float64 {
	return l.Config.LeftPanelWidth + float64(i)*l.Config.DayWidth
}

// TodayX is the centre of the today column.
func (l Layout) TodayX() float64 {
	return l.ColumnX(l.TodayIndex) + l.Config.DayWidth/2
}

func (l Layout) bar(t task.Task, rowY float64) *Bar {
	if !t.HasSpan() {
		return nil
	}
	cfg := l.Config
	startIdx := l.Range.Index(t.StartDate.Time())
	endIdx := l.Range.Index(t.DueDate.Time())

	x := l.ColumnX(startIdx) + cfg.BarPadLeft
	w := float64(endIdx-startIdx+1)*cfg.DayWidth - cfg.BarPadLeft - cfg.BarPadRight
	if w < 0 {
		// Due before start: keep the bar anchored at its start, zero wide.
		w = 0
	}
	if !finite(x) || !finite(w) {
		return nil
	}
	return &Bar{
		StartIndex:    startIdx,
		EndIndex:      endIdx,
		X:             x,
		Y:             rowY + cfg.RowHeight/4,
		Width:         w,
		Height:        cfg.RowHeight / 2,
		ProgressWidth: w * float64(task.ClampRatio(t.DoneRatio)) / 100,
		Color:         t.StatusColor,
	}
}

// arrows routes each link whose two tasks both have a bar in this layout.
// The path leaves the source sideways, drops to the row boundary, runs
// along it and enters the target from the side the link type names.
func (l Layout) arrows(links []task.Link) []Arrow {
	if len(links) == 0 {
		return nil
	}
	rowOf := make(map[int64]int, len(l.Rows))
	for i, r := range l.Rows {
		if _, dup := rowOf[r.Task.ID]; !dup {
			rowOf[r.Task.ID] = i
		}
	}
	gap := l.Config.DayWidth / 4

	var out []Arrow
	for _, lk := range links {
		si, ok1 := rowOf[lk.Source]
		ti, ok2 := rowOf[lk.Target]
		if !ok1 || !ok2 {
			continue
		}
		src, dst := l.Rows[si].Bar, l.Rows[ti].Bar
		if src == nil || dst == nil {
			continue
		}
		fx, out1 := src.X, -gap
		if lk.Type.FromEnd() {
			fx, out1 = src.X+src.Width, gap
		}
		tx, in1 := dst.X+dst.Width, gap
		if lk.Type.ToStart() {
			tx, in1 = dst.X, -gap
		}
		sy, ty := src.Y+src.Height/2, dst.Y+dst.Height/2
		my := l.Rows[ti].Y
		if ti < si {
			my += l.Config.RowHeight
		}
		out = append(out, Arrow{Link: lk, Points: []Point{
			{fx, sy},
			{fx + out1, sy},
			{fx + out1, my},
			{tx + in1, my},
			{tx + in1, ty},
			{tx, ty},
		}})
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// tick decides whether column i starts a labelled unit at zoom z.
func tick(z Zoom, d time.Time, i int) (bool, string) {
	switch z {
	case ZoomWeek:
		if d.Weekday() == time.Monday || i == 0 {
			return true, d.Format("Jan 02")
		}
	case ZoomMonth:
		if d.Day() == 1 || i == 0 {
			return true, d.Format("Jan 2006")
		}
	default:
		return true, d.Format("02")
	}
	return false, ""
}

// RowAt maps a y coordinate to a row index. Points above the first row or
// below the last report false.
func (l Layout) RowAt(y float64) (int, bool) {
	if l.Empty || l.Config.RowHeight <= 0 || !finite(y) {
		return 0, false
	}
	i := int(math.Floor((y - l.Config.HeaderHeight) / l.Config.RowHeight))
	if i < 0 || i >= len(l.Rows) {
		return 0, false
	}
	return i, true
}

// ColumnAt maps an x coordinate to a day column.
func (l Layout) ColumnAt(x float64) (int, bool) {
	if l.Empty || l.Config.DayWidth <= 0 || !finite(x) {
		return 0, false
	}
	i := int(math.Floor((x - l.Config.LeftPanelWidth) / l.Config.DayWidth))
	if i < 0 || i >= len(l.Columns) {
		return 0, false
	}
	return i, true
}
