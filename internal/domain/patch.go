package domain

// Patch is a partial element update. Pointer fields distinguish "absent" from
// a zero value, which is what the merge rules below depend on.
type Patch struct {
	Type        *Kind    `json:"type,omitempty"`
	Color       *string  `json:"color,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`

	Points []Point `json:"points,omitempty"`

	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Radius *float64 `json:"radius,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Side   *float64 `json:"side,omitempty"`

	Text       *string  `json:"text,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
}

// ApplyPatch merges p into existing.
//
// If p does not change the kind, present patch fields are shallow-merged over
// the element (attribute edits: recolor, move, resize).
//
// If p changes the kind, the element is rebuilt from the patch: the id and
// origin session survive, color and stroke width carry forward only when the
// patch omits them, and every field outside the new kind's canonical set is
// dropped. A freehand stroke replaced by a circle patch keeps no points.
func ApplyPatch(existing Element, p Patch) Element {
	if p.Type == nil || *p.Type == existing.Type {
		return merge(existing, p)
	}

	next := Element{
		ID:              existing.ID,
		Type:            *p.Type,
		OriginSessionID: existing.OriginSessionID,
	}
	next = merge(next, p)
	if p.Color == nil {
		next.Color = existing.Color
	}
	if p.StrokeWidth == nil {
		next.StrokeWidth = existing.StrokeWidth
	}
	return next.Canonicalize()
}

// AsPatch converts an element into a patch that reproduces its kind and
// canonical geometry. Color and stroke width are left absent so ApplyPatch
// carries them forward from the element being replaced.
func (e Element) AsPatch() Patch {
	p := Patch{Type: &e.Type}
	switch e.Type {
	case KindFreehand, KindEraser, KindLine, KindTriangle, KindHexagon, KindPentagon:
		p.Points = clonePoints(e.Points)
	case KindCircle:
		p.X, p.Y, p.Radius = &e.X, &e.Y, &e.Radius
	case KindRectangle:
		p.X, p.Y = &e.X, &e.Y
		p.Width, p.Height = &e.Width, &e.Height
	case KindSquare:
		p.X, p.Y, p.Side = &e.X, &e.Y, &e.Side
	case KindText:
		p.X, p.Y = &e.X, &e.Y
		p.Text, p.FontSize, p.FontFamily = &e.Text, &e.FontSize, &e.FontFamily
		p.Width, p.Height = &e.Width, &e.Height
	}
	return p
}

func merge(e Element, p Patch) Element {
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.StrokeWidth != nil {
		e.StrokeWidth = *p.StrokeWidth
	}
	if p.Points != nil {
		e.Points = clonePoints(p.Points)
	}
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Radius != nil {
		e.Radius = *p.Radius
	}
	if p.Width != nil {
		e.Width = *p.Width
	}
	if p.Height != nil {
		e.Height = *p.Height
	}
	if p.Side != nil {
		e.Side = *p.Side
	}
	if p.Text != nil {
		e.Text = *p.Text
	}
	if p.FontSize != nil {
		e.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		e.FontFamily = *p.FontFamily
	}
	return e
}
