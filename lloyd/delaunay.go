package lloyd

import (
	"math"

	"github.com/paulmach/orb"
)

// superScale places the enclosing super triangle far enough away that its
// vertices only influence triangles along the convex hull.
const superScale = 1e4

// triangle indexes three sites in counter-clockwise order and caches its
// circumcircle.
type triangle struct {
	a, b, c int
	center  orb.Point
	r2      float64
}

func newTriangle(pts []orb.Point, a, b, c int) triangle {
	if cross(pts[a], pts[b], pts[c]) < 0 {
		b, c = c, b
	}
	t := triangle{a: a, b: b, c: c}
	t.center, t.r2 = circumcircle(pts[a], pts[b], pts[c])
	return t
}

func (t triangle) has(v int) bool {
	return t.a == v || t.b == v || t.c == v
}

// around returns the two other vertices of t as seen from v, in
// counter-clockwise order.
func (t triangle) around(v int) (int, int) {
	switch v {
	case t.a:
		return t.b, t.c
	case t.b:
		return t.c, t.a
	default:
		return t.a, t.b
	}
}

// circumcircle returns the center and squared radius of the circle through
// a, b and c. Collinear triples get an infinite radius so they are always
// replaced on the next insertion.
func circumcircle(a, b, c orb.Point) (orb.Point, float64) {
	bx, by := b[0]-a[0], b[1]-a[1]
	cx, cy := c[0]-a[0], c[1]-a[1]
	d := 2 * (bx*cy - by*cx)
	if d == 0 {
		return orb.Point{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3}, math.Inf(1)
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return orb.Point{a[0] + ux, a[1] + uy}, ux*ux + uy*uy
}

func (t triangle) circumcircleContains(p orb.Point) bool {
	dx, dy := p[0]-t.center[0], p[1]-t.center[1]
	return dx*dx+dy*dy < t.r2
}

func (t triangle) contains(pts []orb.Point, p orb.Point) bool {
	return cross(pts[t.a], pts[t.b], p) >= 0 &&
		cross(pts[t.b], pts[t.c], p) >= 0 &&
		cross(pts[t.c], pts[t.a], p) >= 0
}

type edgeKey struct{ u, v int }

func undirected(u, v int) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{u, v}
}

// triangulate computes the Delaunay triangulation of distinct, not all
// collinear sites with the Bowyer-Watson algorithm. Triangles touching the
// super triangle are removed, so near-collinear hull triples may be missing.
func triangulate(sites []orb.Point) []triangle {
	n := len(sites)
	var b orb.Bound
	for i, p := range sites {
		if i == 0 {
			b = p.Bound()
			continue
		}
		b = b.Extend(p)
	}
	size := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	if size == 0 {
		size = 1
	}
	mid := b.Center()
	m := size * superScale

	pts := make([]orb.Point, n, n+3)
	copy(pts, sites)
	pts = append(pts,
		orb.Point{mid[0] - 2*m, mid[1] - m},
		orb.Point{mid[0] + 2*m, mid[1] - m},
		orb.Point{mid[0], mid[1] + 2*m},
	)

	tris := []triangle{newTriangle(pts, n, n+1, n+2)}

	for i := 0; i < n; i++ {
		p := pts[i]

		bad := make([]bool, len(tris))
		anyBad := false
		for j, t := range tris {
			if t.circumcircleContains(p) || t.contains(pts, p) {
				bad[j] = true
				anyBad = true
			}
		}
		if !anyBad {
			continue
		}

		// The cavity boundary is made of the edges used by exactly one bad
		// triangle; their direction is kept so new triangles stay CCW.
		count := make(map[edgeKey]int)
		for j, t := range tris {
			if !bad[j] {
				continue
			}
			count[undirected(t.a, t.b)]++
			count[undirected(t.b, t.c)]++
			count[undirected(t.c, t.a)]++
		}

		kept := tris[:0:0]
		var boundary [][2]int
		for j, t := range tris {
			if !bad[j] {
				kept = append(kept, t)
				continue
			}
			for _, e := range [][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
				if count[undirected(e[0], e[1])] == 1 {
					boundary = append(boundary, e)
				}
			}
		}

		for _, e := range boundary {
			kept = append(kept, newTriangle(pts, e[0], e[1], i))
		}
		tris = kept
	}

	out := tris[:0]
	for _, t := range tris {
		if t.a >= n || t.b >= n || t.c >= n {
			continue
		}
		out = append(out, t)
	}
	return out
}
