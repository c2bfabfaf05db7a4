package domain

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func kindPtr(k Kind) *Kind      { return &k }

func TestApplyPatchShallowMerge(t *testing.T) {
	existing := Element{
		ID:              "el-1",
		Type:            KindRectangle,
		Color:           "#ff0000",
		StrokeWidth:     2,
		OriginSessionID: "s1",
		X:               10,
		Y:               20,
		Width:           100,
		Height:          50,
	}

	tests := []struct {
		name  string
		patch Patch
		want  Element
	}{
		{
			name:  "recolor only",
			patch: Patch{Color: strPtr("#00ff00")},
			want: func() Element {
				e := existing
				e.Color = "#00ff00"
				return e
			}(),
		},
		{
			name:  "move keeps size",
			patch: Patch{X: f64Ptr(30), Y: f64Ptr(40)},
			want: func() Element {
				e := existing
				e.X, e.Y = 30, 40
				return e
			}(),
		},
		{
			name:  "same kind explicit is still a merge",
			patch: Patch{Type: kindPtr(KindRectangle), Width: f64Ptr(120)},
			want: func() Element {
				e := existing
				e.Width = 120
				return e
			}(),
		},
		{
			name:  "zero value is applied when present",
			patch: Patch{StrokeWidth: f64Ptr(0)},
			want: func() Element {
				e := existing
				e.StrokeWidth = 0
				return e
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyPatch(existing, tt.patch)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyPatch() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyPatchKindReplacement(t *testing.T) {
	stroke := Element{
		ID:              "el-2",
		Type:            KindFreehand,
		Color:           "#0000ff",
		StrokeWidth:     3,
		OriginSessionID: "s1",
		Points:          []Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 1}},
	}

	got := ApplyPatch(stroke, Patch{
		Type:   kindPtr(KindCircle),
		X:      f64Ptr(50),
		Y:      f64Ptr(60),
		Radius: f64Ptr(25),
	})

	want := Element{
		ID:              "el-2",
		Type:            KindCircle,
		Color:           "#0000ff",
		StrokeWidth:     3,
		OriginSessionID: "s1",
		X:               50,
		Y:               60,
		Radius:          25,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyPatch() = %+v, want %+v", got, want)
	}
	if got.Points != nil {
		t.Errorf("points survived a kind change: %v", got.Points)
	}
}

func TestApplyPatchKindReplacementOverridesCarriedFields(t *testing.T) {
	stroke := Element{
		ID:          "el-3",
		Type:        KindFreehand,
		Color:       "#111111",
		StrokeWidth: 1,
		Points:      []Point{{X: 0, Y: 0}},
	}

	got := ApplyPatch(stroke, Patch{
		Type:        kindPtr(KindSquare),
		Color:       strPtr("#222222"),
		StrokeWidth: f64Ptr(5),
		X:           f64Ptr(0),
		Y:           f64Ptr(0),
		Side:        f64Ptr(40),
	})

	if got.Color != "#222222" || got.StrokeWidth != 5 {
		t.Errorf("patch-provided shared fields must win, got color=%q width=%v", got.Color, got.StrokeWidth)
	}
	if got.Side != 40 || got.Type != KindSquare {
		t.Errorf("unexpected geometry: %+v", got)
	}
}

func TestApplyPatchShapeBackToFreehand(t *testing.T) {
	circle := Element{
		ID:     "el-4",
		Type:   KindCircle,
		X:      10,
		Y:      10,
		Radius: 5,
	}

	got := ApplyPatch(circle, Patch{
		Type:   kindPtr(KindFreehand),
		Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	})

	if got.Type != KindFreehand || len(got.Points) != 2 {
		t.Fatalf("expected freehand with 2 points, got %+v", got)
	}
	if got.X != 0 || got.Y != 0 || got.Radius != 0 {
		t.Errorf("circle geometry survived the kind change: %+v", got)
	}
}

func TestCanonicalizePerKind(t *testing.T) {
	// An element polluted with every field; canonicalize must keep only the
	// canonical set of its kind.
	dirty := Element{
		ID:          "el-5",
		Color:       "#abcdef",
		StrokeWidth: 2,
		Points:      []Point{{X: 1, Y: 1}},
		X:           1, Y: 2, Radius: 3, Width: 4, Height: 5, Side: 6,
		Text: "hi", FontSize: 14, FontFamily: "monospace",
	}

	tests := []struct {
		kind Kind
		keep func(Element) bool
	}{
		{KindFreehand, func(e Element) bool {
			return e.Points != nil && e.X == 0 && e.Radius == 0 && e.Text == ""
		}},
		{KindCircle, func(e Element) bool {
			return e.Points == nil && e.X == 1 && e.Y == 2 && e.Radius == 3 && e.Width == 0
		}},
		{KindRectangle, func(e Element) bool {
			return e.Points == nil && e.Width == 4 && e.Height == 5 && e.Side == 0 && e.Radius == 0
		}},
		{KindSquare, func(e Element) bool {
			return e.Side == 6 && e.Width == 0 && e.Height == 0
		}},
		{KindText, func(e Element) bool {
			return e.Text == "hi" && e.FontSize == 14 && e.Width == 4 && e.Points == nil && e.Radius == 0
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := dirty
			e.Type = tt.kind
			got := e.Canonicalize()
			if got.ID != "el-5" || got.Color != "#abcdef" || got.StrokeWidth != 2 {
				t.Errorf("shared fields must survive: %+v", got)
			}
			if !tt.keep(got) {
				t.Errorf("wrong canonical set for %s: %+v", tt.kind, got)
			}
		})
	}
}

func TestCloneIsolatesPoints(t *testing.T) {
	orig := Element{Type: KindFreehand, Points: []Point{{X: 1, Y: 1}}}
	cp := orig.Clone()
	cp.Points[0].X = 99
	if orig.Points[0].X != 1 {
		t.Error("Clone shares the points backing array")
	}
}

func TestAsPatchRoundTripsThroughApply(t *testing.T) {
	stroke := Element{
		ID: "el-7", Type: KindFreehand, Color: "#123456", StrokeWidth: 3,
		OriginSessionID: "sess-1",
		Points:          []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
	}
	clean := Element{Type: KindSquare, X: 0, Y: 0, Side: 10}

	got := ApplyPatch(stroke, clean.AsPatch())

	if got.Type != KindSquare || got.Side != 10 {
		t.Fatalf("conversion lost geometry: %+v", got)
	}
	if got.Points != nil {
		t.Error("points must not survive the kind change")
	}
	if got.Color != "#123456" || got.StrokeWidth != 3 {
		t.Error("appearance must carry forward when the patch omits it")
	}
	if got.ID != "el-7" || got.OriginSessionID != "sess-1" {
		t.Error("identity must survive the conversion")
	}
}
