package domain

// Kind tags an element variant. The set is closed: every element on a board
// is exactly one of these, and its stored fields are exactly the canonical
// field set for its kind.
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindEraser    Kind = "eraser"
	KindLine      Kind = "line"
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindSquare    Kind = "square"
	KindTriangle  Kind = "triangle"
	KindHexagon   Kind = "hexagon"
	KindPentagon  Kind = "pentagon"
	KindText      Kind = "text"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one drawable object. Shared fields are always present; per-kind
// fields follow the canonical sets:
//
//	freehand/eraser/line/triangle/hexagon/pentagon: points
//	circle:    x, y, radius
//	rectangle: x, y, width, height
//	square:    x, y, side
//	text:      x, y, text, fontSize, fontFamily, width, height
type Element struct {
	ID              string  `json:"id"`
	Type            Kind    `json:"type"`
	Color           string  `json:"color,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	OriginSessionID string  `json:"originSessionId,omitempty"`

	Points []Point `json:"points,omitempty"`

	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Side   float64 `json:"side,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
}

// Canonicalize returns a copy of e carrying only the shared fields plus the
// canonical field set of its kind. Fields left over from a previous kind are
// dropped, so a stroke reclassified as a circle loses its points.
func (e Element) Canonicalize() Element {
	out := Element{
		ID:              e.ID,
		Type:            e.Type,
		Color:           e.Color,
		StrokeWidth:     e.StrokeWidth,
		OriginSessionID: e.OriginSessionID,
	}

	switch e.Type {
	case KindFreehand, KindEraser, KindLine, KindTriangle, KindHexagon, KindPentagon:
		out.Points = clonePoints(e.Points)
	case KindCircle:
		out.X, out.Y, out.Radius = e.X, e.Y, e.Radius
	case KindRectangle:
		out.X, out.Y, out.Width, out.Height = e.X, e.Y, e.Width, e.Height
	case KindSquare:
		out.X, out.Y, out.Side = e.X, e.Y, e.Side
	case KindText:
		out.X, out.Y = e.X, e.Y
		out.Text, out.FontSize, out.FontFamily = e.Text, e.FontSize, e.FontFamily
		out.Width, out.Height = e.Width, e.Height
	}

	return out
}

// Clone returns a deep copy, safe to hand out as a snapshot.
func (e Element) Clone() Element {
	out := e
	out.Points = clonePoints(e.Points)
	return out
}

func clonePoints(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
