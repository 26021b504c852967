package timeline

// OpKind identifies a recorded drawing call.
type OpKind string

const (
	OpFill OpKind = "fill"
	OpLine OpKind = "line"
	OpText OpKind = "text"
)

// Op is one recorded drawing call.
type Op struct {
	Kind  OpKind  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`
	Text  string  `json:"text,omitempty"`
	Color string  `json:"color"`
}

// Recorder is a Surface that keeps the calls made on it.
type Recorder struct {
	W, H float64
	Ops  []Op
}

func NewRecorder(w, h float64) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) FillRect(rect Rect, color string) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, X: rect.X, Y: rect.Y, W: rect.W, H: rect.H, Color: color})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, color string) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Color: color})
}

func (r *Recorder) Text(x, y float64, s string, color string) {
	r.Ops = append(r.Ops, Op{Kind: OpText, X: x, Y: y, Text: s, Color: color})
}

// Fills returns the recorded fills of the given color.
func (r *Recorder) Fills(color string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == OpFill && op.Color == color {
			out = append(out, op)
		}
	}
	return out
}
