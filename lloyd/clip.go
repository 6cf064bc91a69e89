package lloyd

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Clip intersects a Voronoi cell with region and returns the result as an
// open counter-clockwise ring.
//
// Unbounded and strip cells are first closed with vertices far outside the
// region, then clipped like bounded cells. Vertices on a region edge count as
// inside. A DuplicateCell clips to the single vertex at its site. A cell that
// misses the region fails with ErrEmptyIntersection.
func Clip(cell Cell, region *Region) (orb.Ring, error) {
	var polygon []orb.Point
	switch c := cell.(type) {
	case BoundedCell:
		polygon = openRing(c.Vertices)
	case UnboundedCell:
		if len(c.Vertices) == 0 {
			return nil, fmt.Errorf("%w: unbounded cell at %v has no vertices", ErrEmptyIntersection, c.Site)
		}
		polygon = c.polygon(reach(region, c.Vertices...))
	case StripCell:
		polygon = c.polygon(reach(region, c.Site))
	case DuplicateCell:
		return orb.Ring{c.Site}, nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", cell)
	}

	var out []orb.Point
	if region.convex {
		out = clipConvex(polygon, region.ring, region.tol)
	} else {
		// Sutherland-Hodgman needs a convex clip polygon; cells always are.
		out = clipConvex(region.ring, polygon, region.tol)
	}
	out = compact(out, region.tol)

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: cell at %v", ErrEmptyIntersection, cell.site())
	}
	return orb.Ring(out), nil
}

// reach returns a ray length that puts synthesized vertices well outside
// both the region and the given points.
func reach(region *Region, points ...orb.Point) float64 {
	b := region.bound
	for _, p := range points {
		b = b.Extend(p)
	}
	return 4*boundDiagonal(b) + 1
}

// polygon closes the cell with ray endpoints at distance l and a cap vertex
// along the bisector of the rays, keeping the polygon inside the cell and
// convex.
func (c UnboundedCell) polygon(l float64) []orb.Point {
	first := c.Vertices[0]
	last := c.Vertices[len(c.Vertices)-1]

	bisector := unit(add(c.In, c.Out))
	if bisector == (orb.Point{}) {
		bisector = leftNormal(c.Out)
	}

	poly := make([]orb.Point, 0, len(c.Vertices)+3)
	poly = append(poly, c.Vertices...)
	poly = append(poly,
		add(last, scale(c.Out, l)),
		add(midpoint(first, last), scale(bisector, l)),
		add(first, scale(c.In, l)),
	)
	return poly
}

// polygon closes the band as a rectangle of half-width l across the axis.
func (c StripCell) polygon(l float64) []orb.Point {
	lo := add(c.Site, scale(c.Axis, -l))
	if c.Lower != nil {
		lo = *c.Lower
	}
	hi := add(c.Site, scale(c.Axis, l))
	if c.Upper != nil {
		hi = *c.Upper
	}

	n := scale(leftNormal(c.Axis), l)
	return []orb.Point{
		sub(lo, n),
		sub(hi, n),
		add(hi, n),
		add(lo, n),
	}
}

// clipConvex clips subject against every edge of the convex,
// counter-clockwise clip polygon (Sutherland-Hodgman). Points within tol of an
// edge are kept.
func clipConvex(subject, clip []orb.Point, tol float64) []orb.Point {
	out := make([]orb.Point, len(subject))
	copy(out, subject)

	for i := range clip {
		if len(out) == 0 {
			break
		}
		a, b := clip[i], clip[(i+1)%len(clip)]
		length := math.Hypot(b[0]-a[0], b[1]-a[1])
		if length == 0 {
			continue
		}

		in := out
		out = make([]orb.Point, 0, len(in)+2)

		prev := in[len(in)-1]
		dPrev := cross(a, b, prev) / length
		for _, cur := range in {
			dCur := cross(a, b, cur) / length
			prevIn, curIn := dPrev >= -tol, dCur >= -tol
			switch {
			case curIn && !prevIn:
				out = append(out, cut(prev, cur, dPrev, dCur), cur)
			case curIn:
				out = append(out, cur)
			case prevIn:
				out = append(out, cut(prev, cur, dPrev, dCur))
			}
			prev, dPrev = cur, dCur
		}
	}
	return out
}

// cut returns where segment pq crosses the clip line, given the signed
// distances of p and q from it.
func cut(p, q orb.Point, dp, dq float64) orb.Point {
	t := dp / (dp - dq)
	t = math.Max(0, math.Min(1, t))
	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}
