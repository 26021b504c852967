package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sadopc/planr/internal/timeline"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster draws onto an in-memory RGBA image, one layout unit per pixel.
type Raster struct {
	img *image.RGBA
}

func NewRaster(w, h int) *Raster {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// MaxPixels bounds the image ForLayout will allocate (64 MiB of RGBA).
const MaxPixels = 4096 * 4096

// ErrTooLarge is returned when a layout does not fit in MaxPixels.
var ErrTooLarge = errors.New("layout too large to rasterize")

// ForLayout sizes a raster to fit the whole layout. An empty layout gets a
// small canvas for the placeholder message.
func ForLayout(l timeline.Layout) (*Raster, error) {
	if l.Empty {
		return NewRaster(480, 120), nil
	}
	w, h := math.Ceil(l.Width), math.Ceil(l.Height)
	if w*h > MaxPixels {
		return nil, fmt.Errorf("%.0fx%.0f pixels: %w", w, h, ErrTooLarge)
	}
	return NewRaster(int(w), int(h)), nil
}

func (r *Raster) Size() (float64, float64) {
	b := r.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) FillRect(rect timeline.Rect, c string) {
	if rect.W <= 0 || rect.H <= 0 {
		return
	}
	px := image.Rect(
		int(math.Floor(rect.X)), int(math.Floor(rect.Y)),
		int(math.Ceil(rect.X+rect.W)), int(math.Ceil(rect.Y+rect.H)),
	).Intersect(r.img.Bounds())
	if px.Empty() {
		return
	}
	draw.Draw(r.img, px, image.NewUniform(parseColor(c)), image.Point{}, draw.Src)
}

// Line draws a one pixel line.
func (r *Raster) Line(x1, y1, x2, y2 float64, c string) {
	col := parseColor(c)
	dx, dy := x2-x1, y2-y1
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		r.img.Set(int(x1), int(y1), col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		r.img.Set(int(math.Round(x1+dx*t)), int(math.Round(y1+dy*t)), col)
	}
}

// Text draws s with its baseline centred vertically on y.
func (r *Raster) Text(x, y float64, s string, c string) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(parseColor(c)),
		Face: face,
		Dot:  fixed.P(int(x), int(y)+face.Ascent/2),
	}
	d.DrawString(s)
}

// EncodePNG writes the image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}

// parseColor reads "#RRGGBB". Anything else is drawn black.
func parseColor(s string) color.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.Black
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
