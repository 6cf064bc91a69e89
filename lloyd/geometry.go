package lloyd

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// relativeEpsilon scales tolerances to the size of the geometry involved.
const relativeEpsilon = 1e-9

// cross returns the cross product of vectors OA and OB where O is origin.
// Positive when o, a, b turn counter-clockwise.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

func add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

func scale(p orb.Point, s float64) orb.Point {
	return orb.Point{p[0] * s, p[1] * s}
}

func midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// unit returns p scaled to length 1, or the zero point for a zero vector.
func unit(p orb.Point) orb.Point {
	l := math.Hypot(p[0], p[1])
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{p[0] / l, p[1] / l}
}

// leftNormal rotates p by 90 degrees counter-clockwise.
func leftNormal(p orb.Point) orb.Point {
	return orb.Point{-p[1], p[0]}
}

// rightNormal rotates p by 90 degrees clockwise.
func rightNormal(p orb.Point) orb.Point {
	return orb.Point{p[1], -p[0]}
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

// signedArea returns the shoelace area of an open ring, positive for
// counter-clockwise winding.
func signedArea(ring []orb.Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	origin := ring[0]
	var sum float64
	for i := 1; i < n-1; i++ {
		sum += cross(origin, ring[i], ring[i+1])
	}
	return sum / 2
}

// boundDiagonal returns the length of the bounding box diagonal.
func boundDiagonal(b orb.Bound) float64 {
	return math.Hypot(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
}

// openRing returns the vertices of r without a repeated closing vertex.
func openRing(r []orb.Point) []orb.Point {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// compact removes consecutive vertices closer than tol, including the
// wrap-around pair, so rings never carry zero-length edges.
func compact(ring []orb.Point, tol float64) []orb.Point {
	if len(ring) == 0 {
		return ring
	}
	out := make([]orb.Point, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && planar.Distance(out[len(out)-1], p) <= tol {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && planar.Distance(out[0], out[len(out)-1]) <= tol {
		out = out[:len(out)-1]
	}
	return out
}

// closestOnSegment projects p onto segment ab.
func closestOnSegment(a, b, p orb.Point) orb.Point {
	d := sub(b, a)
	l2 := d[0]*d[0] + d[1]*d[1]
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*d[0] + (p[1]-a[1])*d[1]) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*d[0], a[1] + t*d[1]}
}

// segmentsIntersect reports whether the closed segments p1p2 and q1q2 share
// at least one point.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	onSegment := func(a, b, p orb.Point) bool {
		return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
			math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}
