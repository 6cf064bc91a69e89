package lloyd

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Centroid returns the area centroid of a polygon using the shoelace
// formula. A closing vertex equal to the first one is ignored. Polygons with
// zero area fail with ErrDegeneratePolygon and an empty ring fails with
// ErrEmptyIntersection.
func Centroid(ring orb.Ring) (orb.Point, error) {
	pts := openRing(ring)
	if len(pts) == 0 {
		return orb.Point{}, fmt.Errorf("%w: empty polygon", ErrEmptyIntersection)
	}
	if len(pts) < 3 {
		return orb.Point{}, fmt.Errorf("%w: %d vertices", ErrDegeneratePolygon, len(pts))
	}

	// Work relative to the first vertex to keep the products small.
	origin := pts[0]
	var area, cx, cy float64
	for i := range pts {
		p := sub(pts[i], origin)
		q := sub(pts[(i+1)%len(pts)], origin)
		step := p[0]*q[1] - q[0]*p[1]
		area += step
		cx += (p[0] + q[0]) * step
		cy += (p[1] + q[1]) * step
	}
	area /= 2

	size := boundDiagonal(orb.Ring(pts).Bound())
	if area == 0 || math.Abs(area) <= size*size*relativeEpsilon*relativeEpsilon {
		return orb.Point{}, fmt.Errorf("%w: zero area", ErrDegeneratePolygon)
	}

	return orb.Point{
		origin[0] + cx/(6*area),
		origin[1] + cy/(6*area),
	}, nil
}

// VertexAverage returns the mean of the polygon's vertices, ignoring a
// closing vertex. It is the fallback for polygons without area.
func VertexAverage(ring orb.Ring) orb.Point {
	pts := openRing(ring)
	if len(pts) == 0 {
		return orb.Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}
