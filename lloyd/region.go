package lloyd

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region is the polygonal domain that relaxed points are confined to.
// The ring is stored open (no repeated closing vertex) and counter-clockwise.
// A Region is immutable once built.
type Region struct {
	ring     orb.Ring
	bound    orb.Bound
	convex   bool
	area     float64
	diameter float64
	tol      float64
}

// FromConvexHull returns the convex hull of points as a Region.
func FromConvexHull(points []orb.Point) (*Region, error) {
	hull := ConvexHull(points)
	if len(hull) < 3 {
		return nil, fmt.Errorf("%w: convex hull has %d vertices: %w", ErrInvalidRegion, len(hull), ErrDegenerateInput)
	}
	return newRegion(hull), nil
}

// FromVertices validates vertices as a simple polygon and returns it as a
// Region. A repeated closing vertex is ignored and clockwise input is
// reversed. Non-convex polygons are accepted.
func FromVertices(vertices []orb.Point) (*Region, error) {
	ring := make([]orb.Point, len(openRing(vertices)))
	copy(ring, openRing(vertices))

	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 vertices, got %d", ErrInvalidRegion, len(ring))
	}
	for i, p := range ring {
		if !finite(p) {
			return nil, fmt.Errorf("%w: vertex %d has non-finite coordinates", ErrInvalidRegion, i)
		}
		if p == ring[(i+1)%len(ring)] {
			return nil, fmt.Errorf("%w: vertex %d repeats its successor", ErrInvalidRegion, i)
		}
	}

	area := signedArea(ring)
	if area == 0 {
		return nil, fmt.Errorf("%w: polygon has zero area", ErrInvalidRegion)
	}
	if i, j, ok := selfIntersection(ring); ok {
		return nil, fmt.Errorf("%w: edges %d and %d intersect", ErrInvalidRegion, i, j)
	}

	if area < 0 {
		orb.Ring(ring).Reverse()
	}
	return newRegion(ring), nil
}

// FromBound returns the axis-aligned box b as a Region.
func FromBound(b orb.Bound) (*Region, error) {
	if !finite(b.Min) || !finite(b.Max) || b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return nil, fmt.Errorf("%w: box %v has no area", ErrInvalidRegion, b)
	}
	return newRegion([]orb.Point{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}), nil
}

func newRegion(ring []orb.Point) *Region {
	r := &Region{
		ring:  orb.Ring(ring),
		bound: orb.Ring(ring).Bound(),
		area:  math.Abs(signedArea(ring)),
	}
	r.diameter = boundDiagonal(r.bound)
	r.tol = math.Max(r.diameter*relativeEpsilon, math.SmallestNonzeroFloat64)

	r.convex = true
	n := len(ring)
	for i := 0; i < n; i++ {
		turn := cross(ring[i], ring[(i+1)%n], ring[(i+2)%n])
		if turn < -r.tol*r.diameter {
			r.convex = false
			break
		}
	}
	return r
}

// selfIntersection returns the first pair of non-adjacent edges that touch.
func selfIntersection(ring []orb.Point) (int, int, bool) {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(a1, a2, ring[j], ring[(j+1)%n]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// Ring returns a copy of the region's vertices in counter-clockwise order.
func (r *Region) Ring() orb.Ring {
	return r.ring.Clone()
}

// Bound returns the axis-aligned bounding box of the region.
func (r *Region) Bound() orb.Bound {
	return r.bound
}

// Convex reports whether the region is convex.
func (r *Region) Convex() bool {
	return r.convex
}

// Area returns the region's area.
func (r *Region) Area() float64 {
	return r.area
}

// Diameter returns the length of the region's bounding box diagonal.
func (r *Region) Diameter() float64 {
	return r.diameter
}

// Contains reports whether p lies inside the region or on its boundary.
func (r *Region) Contains(p orb.Point) bool {
	if !finite(p) {
		return false
	}
	if planar.RingContains(r.ring, p) {
		return true
	}
	_, dist := r.closestBoundaryPoint(p)
	return dist <= r.tol
}

// IntersectPolygon clips a convex polygon against the region. The polygon
// may wind either way.
func (r *Region) IntersectPolygon(polygon orb.Ring) (orb.Ring, error) {
	vertices := openRing(polygon.Clone())
	if signedArea(vertices) < 0 {
		orb.Ring(vertices).Reverse()
	}
	return Clip(BoundedCell{Vertices: vertices}, r)
}

// closestBoundaryPoint returns the point on the region's boundary nearest to p
// and its distance.
func (r *Region) closestBoundaryPoint(p orb.Point) (orb.Point, float64) {
	best := r.ring[0]
	bestDist := math.Inf(1)
	n := len(r.ring)
	for i := 0; i < n; i++ {
		q := closestOnSegment(r.ring[i], r.ring[(i+1)%n], p)
		if d := planar.Distance(p, q); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, bestDist
}
