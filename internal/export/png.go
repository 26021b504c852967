package export

import (
	"fmt"
	"os"

	"github.com/sadopc/planr/internal/render"
	"github.com/sadopc/planr/internal/timeline"
)

// GanttToPNG draws the whole layout at one pixel per layout unit.
func GanttToPNG(l timeline.Layout, path string) error {
	r, err := render.ForLayout(l)
	if err != nil {
		return err
	}
	timeline.Draw(l, r, timeline.DrawOptions{Theme: timeline.DefaultTheme(), Hover: -1})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png file: %w", err)
	}
	if err := r.EncodePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
