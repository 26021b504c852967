// Package render provides timeline.Surface implementations: a terminal
// canvas and a PNG raster.
package render

import (
	"math"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/timeline"
)

// Canvas draws onto an ntcharts canvas. Layout units are divided by ScaleX
// and ScaleY to get cell coordinates.
type Canvas struct {
	model  canvas.Model
	cols   int
	rows   int
	scaleX float64
	scaleY float64
	// bg remembers each cell's fill so text and lines keep the background.
	bg [][]string
}

// NewCanvas creates a cols x rows cell canvas. One cell covers scaleX by
// scaleY layout units.
func NewCanvas(cols, rows int, scaleX, scaleY float64) *Canvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	bg := make([][]string, rows)
	for i := range bg {
		bg[i] = make([]string, cols)
	}
	return &Canvas{
		model:  canvas.New(cols, rows),
		cols:   cols,
		rows:   rows,
		scaleX: scaleX,
		scaleY: scaleY,
		bg:     bg,
	}
}

func (c *Canvas) Size() (float64, float64) {
	return float64(c.cols) * c.scaleX, float64(c.rows) * c.scaleY
}

func (c *Canvas) cellX(x float64) int { return int(math.Floor(x / c.scaleX)) }
func (c *Canvas) cellY(y float64) int { return int(math.Floor(y / c.scaleY)) }

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && x < c.cols && y >= 0 && y < c.rows
}

func (c *Canvas) set(x, y int, r rune, fg string) {
	if !c.inside(x, y) {
		return
	}
	st := lipgloss.NewStyle()
	if fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	if bg := c.bg[y][x]; bg != "" {
		st = st.Background(lipgloss.Color(bg))
	}
	c.model.SetCell(canvas.Point{X: x, Y: y}, canvas.NewCellWithStyle(r, st))
}

// FillRect paints every cell the rectangle touches. A zero-width rectangle
// paints nothing.
func (c *Canvas) FillRect(r timeline.Rect, color string) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	x0, y0 := c.cellX(r.X), c.cellY(r.Y)
	x1 := int(math.Ceil((r.X+r.W)/c.scaleX)) - 1
	y1 := int(math.Ceil((r.Y+r.H)/c.scaleY)) - 1
	for y := max(y0, 0); y <= min(y1, c.rows-1); y++ {
		for x := max(x0, 0); x <= min(x1, c.cols-1); x++ {
			c.bg[y][x] = color
			c.set(x, y, ' ', "")
		}
	}
}

// Line draws vertical lines only. Row rules would land on the row content
// at one text line per row, so horizontal lines are dropped.
func (c *Canvas) Line(x1, y1, x2, y2 float64, color string) {
	if x1 != x2 {
		return
	}
	x := c.cellX(x1)
	lo, hi := c.cellY(math.Min(y1, y2)), c.cellY(math.Max(y1, y2)-1e-9)
	for y := lo; y <= hi; y++ {
		c.set(x, y, '│', color)
	}
}

func (c *Canvas) Text(x, y float64, s string, color string) {
	cx, cy := c.cellX(x), c.cellY(y)
	for _, r := range s {
		c.set(cx, cy, r, color)
		cx++
	}
}

// View returns the rendered cells.
func (c *Canvas) View() string {
	return c.model.View()
}
