// Package shape classifies freehand strokes into canonical geometric
// elements so the board can replace a rough drawing with a clean shape.
package shape

import (
	"math"

	"github.com/stelliform/sketchsphere/internal/domain"
)

// Recognize classifies a freehand stroke. The returned element carries only
// geometry; the caller fills in identity, color and stroke width. ok is false
// when the stroke does not resemble any supported shape.
func Recognize(points []domain.Point) (domain.Element, bool) {
	f, ok := extract(points)
	if !ok {
		return domain.Element{}, false
	}

	centerX := f.minX + f.width/2
	centerY := f.minY + f.height/2

	if !f.closed {
		if f.aspect > 4 && f.straightness < 1.5 && f.corners < 2 {
			return domain.Element{
				Type:   domain.KindLine,
				Points: []domain.Point{f.start, f.end},
			}, true
		}
		return domain.Element{}, false
	}

	switch {
	case f.corners == 3 && f.convex:
		return domain.Element{
			Type: domain.KindTriangle,
			Points: []domain.Point{
				{X: f.minX, Y: f.maxY},
				{X: f.maxX, Y: f.maxY},
				{X: centerX, Y: f.minY},
			},
		}, true

	case f.corners == 4 && f.rightAngleScore > 0.6 && f.aspect <= 1.2 && f.squareness > 0.9:
		side := math.Min(f.width, f.height)
		return domain.Element{
			Type: domain.KindSquare,
			X:    f.minX + (f.width-side)/2,
			Y:    f.minY + (f.height-side)/2,
			Side: side,
		}, true

	case f.corners == 4 && f.rightAngleScore > 0.6:
		return domain.Element{
			Type:   domain.KindRectangle,
			X:      f.minX,
			Y:      f.minY,
			Width:  f.width,
			Height: f.height,
		}, true

	case f.corners == 5 && f.convex:
		return regularPolygon(domain.KindPentagon, 5, centerX, centerY, f), true

	case f.corners == 6 && f.convex:
		return regularPolygon(domain.KindHexagon, 6, centerX, centerY, f), true

	case f.corners < 2 && f.circularity > 0.85:
		return domain.Element{
			Type:   domain.KindCircle,
			X:      centerX,
			Y:      centerY,
			Radius: math.Min(f.width, f.height) / 2,
		}, true
	}

	return domain.Element{}, false
}

// regularPolygon builds an idealized n-gon inscribed in the stroke's bounding
// box, first vertex at the top.
func regularPolygon(kind domain.Kind, n int, cx, cy float64, f features) domain.Element {
	radius := math.Min(f.width, f.height) / 2
	pts := make([]domain.Point, n)
	for i := 0; i < n; i++ {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		pts[i] = domain.Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return domain.Element{Type: kind, Points: pts}
}
