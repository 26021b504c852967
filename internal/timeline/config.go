package timeline

import "fmt"

// Config holds the grid geometry in layout units. Renderers map one unit to
// a pixel or scale it down to terminal cells.
type Config struct {
	DayWidth       float64 `json:"day_width"`
	RowHeight      float64 `json:"row_height"`
	HeaderHeight   float64 `json:"header_height"`
	LeftPanelWidth float64 `json:"left_panel_width"`
	// Bars are inset from their column span by these amounts.
	BarPadLeft  float64 `json:"bar_pad_left"`
	BarPadRight float64 `json:"bar_pad_right"`
}

func DefaultConfig() Config {
	return Config{
		DayWidth:       40,
		RowHeight:      36,
		HeaderHeight:   50,
		LeftPanelWidth: 280,
		BarPadLeft:     2,
		BarPadRight:    0,
	}
}

// Zoom is the calendar granularity of the timeline.
type Zoom int

const (
	ZoomDay Zoom = iota
	ZoomWeek
	ZoomMonth
)

var zoomNames = []string{"day", "week", "month"}

func (z Zoom) String() string {
	if z < 0 || int(z) >= len(zoomNames) {
		return fmt.Sprintf("Zoom(%d)", int(z))
	}
	return zoomNames[z]
}

func (z Zoom) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

func (z *Zoom) UnmarshalText(b []byte) error {
	v, err := ParseZoom(string(b))
	if err != nil {
		return err
	}
	*z = v
	return nil
}

// Next cycles day -> week -> month -> day.
func (z Zoom) Next() Zoom {
	return (z + 1) % Zoom(len(zoomNames))
}

func ParseZoom(s string) (Zoom, error) {
	for i, n := range zoomNames {
		if s == n {
			return Zoom(i), nil
		}
	}
	return ZoomDay, fmt.Errorf("unknown zoom %q (want day, week or month)", s)
}

// scale is the width of one day column per zoom level.
var scale = map[Zoom]float64{
	ZoomDay:   40,
	ZoomWeek:  12,
	ZoomMonth: 4,
}

// ScaleFor returns the day width used at zoom z.
func ScaleFor(z Zoom) float64 {
	if w, ok := scale[z]; ok {
		return w
	}
	return scale[ZoomDay]
}

// Zoomed returns c with its day width taken from the zoom scale table.
func (c Config) Zoomed(z Zoom) Config {
	c.DayWidth = ScaleFor(z)
	return c
}
