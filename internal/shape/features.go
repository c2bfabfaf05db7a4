package shape

import (
	"math"

	"github.com/stelliform/sketchsphere/internal/domain"
)

const (
	minRawPoints   = 15
	minCleanPoints = 10
	dedupeDistance = 2.0
	minClosedSize  = 15.0
	smoothPasses   = 2
	smoothReach    = 2
)

// features are the geometric measurements a stroke is classified on.
type features struct {
	width, height          float64
	minX, minY, maxX, maxY float64
	aspect                 float64
	closed                 bool
	straightness           float64
	squareness             float64
	corners                int
	circularity            float64
	convex                 bool
	rightAngleScore        float64
	start, end             domain.Point
}

// extract measures a raw stroke. It reports false when the stroke is too
// short, too sparse, or too small to classify.
func extract(points []domain.Point) (features, bool) {
	var f features
	if len(points) < minRawPoints {
		return f, false
	}

	// Drop successive points closer than the dedupe distance; slow hand
	// movement otherwise floods the sequence with near-duplicates.
	clean := []domain.Point{points[0]}
	for _, p := range points[1:] {
		last := clean[len(clean)-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) > dedupeDistance {
			clean = append(clean, p)
		}
	}
	if len(clean) < minCleanPoints {
		return f, false
	}

	f.minX, f.minY = clean[0].X, clean[0].Y
	f.maxX, f.maxY = clean[0].X, clean[0].Y
	for _, p := range clean {
		f.minX = math.Min(f.minX, p.X)
		f.maxX = math.Max(f.maxX, p.X)
		f.minY = math.Min(f.minY, p.Y)
		f.maxY = math.Max(f.maxY, p.Y)
	}
	f.width = f.maxX - f.minX
	f.height = f.maxY - f.minY

	first, last := clean[0], clean[len(clean)-1]
	startEnd := math.Hypot(first.X-last.X, first.Y-last.Y)
	f.closed = startEnd < math.Min(f.width, f.height)*0.15

	if f.closed && (f.width < minClosedSize || f.height < minClosedSize) {
		return f, false
	}

	smoothed := smooth(clean, f.closed)
	n := len(smoothed)
	f.start, f.end = smoothed[0], smoothed[n-1]

	var pathLength float64
	for i := 1; i < n; i++ {
		pathLength += math.Hypot(smoothed[i].X-smoothed[i-1].X, smoothed[i].Y-smoothed[i-1].Y)
	}
	straightDistance := math.Hypot(f.end.X-f.start.X, f.end.Y-f.start.Y)

	f.aspect = math.Max(f.width, f.height) / math.Max(1, math.Min(f.width, f.height))
	f.straightness = 1
	if straightDistance > 0 {
		f.straightness = pathLength / straightDistance
	}
	f.squareness = 1 - math.Abs(f.width-f.height)/math.Max(f.width, f.height)

	cornerIdx := detectCorners(smoothed, f.closed, math.Min(f.width, f.height))
	f.corners = len(cornerIdx)

	if f.closed {
		f.circularity = circularity(smoothed, f)
	}

	f.convex = true
	if f.closed && len(cornerIdx) >= 3 {
		f.convex, f.rightAngleScore = vertexShape(smoothed, cornerIdx)
	}

	return f, true
}

// smooth runs weighted-average passes over the stroke. Closed strokes wrap
// around; open strokes clamp at the ends.
func smooth(pts []domain.Point, closed bool) []domain.Point {
	n := len(pts)
	cur := make([]domain.Point, n)
	copy(cur, pts)

	for pass := 0; pass < smoothPasses; pass++ {
		next := make([]domain.Point, n)
		for i := range cur {
			var prev, after domain.Point
			if closed {
				prev = cur[(i-smoothReach+n)%n]
				after = cur[(i+smoothReach)%n]
			} else {
				prev = cur[max(0, i-smoothReach)]
				after = cur[min(n-1, i+smoothReach)]
			}
			next[i] = domain.Point{
				X: prev.X*0.25 + cur[i].X*0.5 + after.X*0.25,
				Y: prev.Y*0.25 + cur[i].Y*0.5 + after.Y*0.25,
			}
		}
		cur = next
	}
	return cur
}

// detectCorners finds distinct direction changes between roughly 45 and 135
// degrees, comparing chords a lookahead window apart so point noise does not
// register. Candidates closer together than a sixth of the smaller bounding
// dimension collapse into one corner.
func detectCorners(sm []domain.Point, closed bool, minDim float64) []int {
	n := len(sm)
	lookahead := max(2, n/20)
	endLimit := n
	if !closed {
		endLimit = n - 1
	}

	var corners []int
	for i := lookahead; i < endLimit-lookahead; i++ {
		dx1 := sm[i].X - sm[i-lookahead].X
		dy1 := sm[i].Y - sm[i-lookahead].Y
		dx2 := sm[(i+lookahead)%n].X - sm[i].X
		dy2 := sm[(i+lookahead)%n].Y - sm[i].Y

		// Skip if segments too short (noise)
		if math.Hypot(dx1, dy1) < 5 || math.Hypot(dx2, dy2) < 5 {
			continue
		}

		angleDiff := math.Atan2(dy2, dx2) - math.Atan2(dy1, dx1)
		for angleDiff > math.Pi {
			angleDiff -= 2 * math.Pi
		}
		for angleDiff < -math.Pi {
			angleDiff += 2 * math.Pi
		}
		angle := math.Abs(angleDiff)
		if angle <= math.Pi/4 || angle >= 3*math.Pi/4 {
			continue
		}

		distinct := true
		for _, idx := range corners {
			if math.Hypot(sm[i].X-sm[idx].X, sm[i].Y-sm[idx].Y) < minDim/6 {
				distinct = false
				break
			}
		}
		if distinct {
			corners = append(corners, i)
		}
	}
	return corners
}

// circularity measures how evenly the stroke orbits the bounding-box center:
// 1 is a perfect circle, lower means lumpier.
func circularity(sm []domain.Point, f features) float64 {
	centerX := (f.minX + f.maxX) / 2
	centerY := (f.minY + f.maxY) / 2
	avgRadius := (f.width + f.height) / 4
	if avgRadius <= 0 {
		return 0
	}

	var variance float64
	for _, p := range sm {
		variance += math.Abs(math.Hypot(p.X-centerX, p.Y-centerY) - avgRadius)
	}
	variance /= float64(len(sm))

	return 1 - variance/avgRadius
}

// vertexShape walks the corner vertices as a polygon, checking turn-sign
// consistency (convexity) and how many joints are close to a right angle.
func vertexShape(sm []domain.Point, cornerIdx []int) (convex bool, rightAngleScore float64) {
	verts := make([]domain.Point, len(cornerIdx))
	for i, idx := range cornerIdx {
		verts[i] = sm[idx]
	}

	m := len(verts)
	convex = true
	lastSign := 0.0
	rightAngles := 0

	for i := 0; i < m; i++ {
		a, b, c := verts[i], verts[(i+1)%m], verts[(i+2)%m]
		abx, aby := b.X-a.X, b.Y-a.Y
		bcx, bcy := c.X-b.X, c.Y-b.Y

		cross := abx*bcy - aby*bcx
		sign := sgn(cross)
		if lastSign == 0 {
			lastSign = sign
		} else if sign != 0 && sign != lastSign {
			convex = false
		}

		mag1 := math.Hypot(abx, aby)
		mag2 := math.Hypot(bcx, bcy)
		if mag1 > 0 && mag2 > 0 {
			cos := (abx*bcx + aby*bcy) / (mag1 * mag2)
			if math.Abs(cos) < 0.2 { // within ~78-102 degrees
				rightAngles++
			}
		}
	}

	return convex, float64(rightAngles) / float64(m)
}

func sgn(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
