package timeline

import "strings"

// Rect is an axis-aligned rectangle in layout units.
type Rect struct {
	X, Y, W, H float64
}

// Surface is an immediate-mode 2D drawing target. Colors are "#RRGGBB".
type Surface interface {
	Size() (w, h float64)
	FillRect(r Rect, color string)
	Line(x1, y1, x2, y2 float64, color string)
	Text(x, y float64, s string, color string)
}

// Theme holds the chart colors.
type Theme struct {
	Background string
	Header     string
	Grid       string
	NonWorking string
	Label      string
	Muted      string
	Bar        string
	Progress   string
	Today      string
	Hover      string
	Link       string
}

func DefaultTheme() Theme {
	return Theme{
		Background: "#1A1B26",
		Header:     "#24283B",
		Grid:       "#414868",
		NonWorking: "#2A2E42",
		Label:      "#C0CAF5",
		Muted:      "#666666",
		Bar:        "#6C63FF",
		Progress:   "#2ECC71",
		Today:      "#FF6B6B",
		Hover:      "#2F334D",
		Link:       "#E0AF68",
	}
}

// EmptyMessage is drawn instead of a grid when there are no tasks.
const EmptyMessage = "No tasks to display"

// DrawOptions control per-frame state that is not part of the layout.
type DrawOptions struct {
	Theme Theme
	// Hover is the highlighted row, or -1.
	Hover int
}

// Draw renders the layout onto s. It redraws everything on each call.
func Draw(l Layout, s Surface, opt DrawOptions) {
	th := opt.Theme
	w, h := s.Size()
	s.FillRect(Rect{0, 0, w, h}, th.Background)

	if l.Empty {
		x := w/2 - float64(len(EmptyMessage))/2*charWidth(l)
		s.Text(x, h/2, EmptyMessage, th.Muted)
		return
	}

	cfg := l.Config
	top := cfg.HeaderHeight
	bottom := l.Height

	if opt.Hover >= 0 && opt.Hover < len(l.Rows) {
		r := l.Rows[opt.Hover]
		s.FillRect(Rect{0, r.Y, l.Width, cfg.RowHeight}, th.Hover)
	}

	for _, c := range l.Columns {
		if c.NonWorking {
			s.FillRect(Rect{c.X, top, cfg.DayWidth, bottom - top}, th.NonWorking)
		}
	}

	s.FillRect(Rect{0, 0, l.Width, top}, th.Header)
	s.Line(cfg.LeftPanelWidth, 0, cfg.LeftPanelWidth, bottom, th.Grid)
	for _, c := range l.Columns {
		if !c.Tick {
			continue
		}
		s.Line(c.X, top, c.X, bottom, th.Grid)
		s.Text(c.X+2, top/2, c.Label, th.Muted)
	}

	// Bars and arrows stay inside the grid, right of the label panel.
	lo, hi := cfg.LeftPanelWidth, l.Width
	for _, r := range l.Rows {
		s.Line(0, r.Y+cfg.RowHeight, l.Width, r.Y+cfg.RowHeight, th.Grid)
		label := strings.Repeat("  ", r.Depth) + r.Task.Subject
		s.Text(4, r.Y+cfg.RowHeight/2, label, th.Label)

		if r.Bar == nil {
			continue
		}
		b := r.Bar
		color := b.Color
		if color == "" {
			color = th.Bar
		}
		if rect, ok := clipRect(Rect{b.X, b.Y, b.Width, b.Height}, lo, hi); ok {
			s.FillRect(rect, color)
		}
		if rect, ok := clipRect(Rect{b.X, b.Y, b.ProgressWidth, b.Height}, lo, hi); ok {
			s.FillRect(rect, th.Progress)
		}
	}

	for _, a := range l.Links {
		for i := 1; i < len(a.Points); i++ {
			if p, q, ok := clipSegment(a.Points[i-1], a.Points[i], lo, hi); ok {
				s.Line(p.X, p.Y, q.X, q.Y, th.Link)
			}
		}
		end := a.Points[len(a.Points)-1]
		if rect, ok := clipRect(Rect{end.X - 3, end.Y - 3, 6, 6}, lo, hi); ok {
			s.FillRect(rect, th.Link)
		}
	}

	if l.TodayVisible {
		x := l.TodayX()
		s.Line(x, top, x, bottom, th.Today)
	}
}

// clipRect trims r to the columns [lo, hi).
func clipRect(r Rect, lo, hi float64) (Rect, bool) {
	x0, x1 := max(r.X, lo), min(r.X+r.W, hi)
	if x1 <= x0 || r.H <= 0 {
		return Rect{}, false
	}
	return Rect{x0, r.Y, x1 - x0, r.H}, true
}

// clipSegment trims an axis-aligned segment to the columns [lo, hi).
func clipSegment(p, q Point, lo, hi float64) (Point, Point, bool) {
	if p.X == q.X {
		return p, q, p.X >= lo && p.X < hi
	}
	if p.X > q.X {
		p, q = q, p
	}
	p.X, q.X = max(p.X, lo), min(q.X, hi)
	return p, q, p.X < q.X
}

// charWidth estimates the width of one text character in layout units,
// used only to centre the empty-state message.
func charWidth(l Layout) float64 {
	if l.Config.DayWidth > 0 {
		return l.Config.DayWidth / 5
	}
	return 8
}
