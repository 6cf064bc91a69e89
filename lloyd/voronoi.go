package lloyd

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Cell is the Voronoi cell of one input point. It is one of BoundedCell,
// UnboundedCell, StripCell or DuplicateCell.
type Cell interface {
	site() orb.Point
}

// BoundedCell is a closed cell; Vertices wind counter-clockwise around Site.
type BoundedCell struct {
	Site     orb.Point
	Vertices []orb.Point
}

// UnboundedCell is a cell of a convex hull point. Vertices is the finite
// chain in counter-clockwise order; In is the unit direction of the ray that
// leaves Vertices[0] and Out the direction of the ray that leaves the last
// vertex. The cell is the region enclosed by In, the chain and Out.
type UnboundedCell struct {
	Site     orb.Point
	Vertices []orb.Point
	In       orb.Point
	Out      orb.Point
}

// StripCell is the cell of a point in a fully collinear input: the band
// between the bisectors with its neighbours along Axis. Lower and Upper are
// points on those bisectors; a nil bound leaves that side open.
type StripCell struct {
	Site  orb.Point
	Axis  orb.Point
	Lower *orb.Point
	Upper *orb.Point
}

// DuplicateCell marks a point with the same coordinates as point Of. It has
// no area of its own. Of is -1 for a point whose cell could not be resolved
// from the triangulation.
type DuplicateCell struct {
	Site orb.Point
	Of   int
}

func (c BoundedCell) site() orb.Point   { return c.Site }
func (c UnboundedCell) site() orb.Point { return c.Site }
func (c StripCell) site() orb.Point     { return c.Site }
func (c DuplicateCell) site() orb.Point { return c.Site }

// Diagram holds one cell per input point, in input order.
type Diagram struct {
	Cells []Cell
	// Duplicates lists the indices that got a DuplicateCell.
	Duplicates []int
}

// Warning returns an error joining an ErrDuplicatePoint for every duplicate,
// or nil when there are none.
func (d *Diagram) Warning() error {
	var errs []error
	for _, i := range d.Duplicates {
		dup := d.Cells[i].(DuplicateCell)
		errs = append(errs, fmt.Errorf("point %d repeats point %d: %w", i, dup.Of, ErrDuplicatePoint))
	}
	return errors.Join(errs...)
}

// Build computes the Voronoi diagram of points. Points sharing coordinates
// with an earlier point get a DuplicateCell. Fully collinear inputs produce
// StripCells. Fewer than 2 distinct points fail with ErrDegenerateInput.
func Build(points []orb.Point) (*Diagram, error) {
	d := &Diagram{Cells: make([]Cell, len(points))}

	var sites []orb.Point
	owner := make([]int, 0, len(points)) // site index -> point index
	seen := make(map[orb.Point]int, len(points))
	for i, p := range points {
		if !finite(p) {
			return nil, fmt.Errorf("%w: point %d has non-finite coordinates", ErrDegenerateInput, i)
		}
		if first, ok := seen[p]; ok {
			d.Cells[i] = DuplicateCell{Site: p, Of: first}
			d.Duplicates = append(d.Duplicates, i)
			continue
		}
		seen[p] = i
		sites = append(sites, p)
		owner = append(owner, i)
	}

	if len(sites) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct points, got %d", ErrDegenerateInput, len(sites))
	}

	var cells []Cell
	if axis, ok := collinearAxis(sites); ok {
		cells = stripCells(sites, axis)
	} else {
		cells = delaunayCells(sites)
	}
	for s, c := range cells {
		d.Cells[owner[s]] = c
	}
	return d, nil
}

// collinearAxis returns the unit direction of the line through all sites,
// or false if the sites span an area.
func collinearAxis(sites []orb.Point) (orb.Point, bool) {
	origin := sites[0]
	far, farDist := origin, 0.0
	for _, p := range sites[1:] {
		if d := planar.Distance(origin, p); d > farDist {
			far, farDist = p, d
		}
	}
	if farDist == 0 {
		return orb.Point{}, true
	}
	for _, p := range sites {
		// cross / farDist is the distance of p from the line.
		if math.Abs(cross(origin, far, p))/farDist > farDist*relativeEpsilon {
			return orb.Point{}, false
		}
	}
	return unit(sub(far, origin)), true
}

// farthestAxis returns the unit direction from the first site to the site
// farthest from it.
func farthestAxis(sites []orb.Point) orb.Point {
	origin := sites[0]
	far, farDist := origin, 0.0
	for _, p := range sites[1:] {
		if d := planar.Distance(origin, p); d > farDist {
			far, farDist = p, d
		}
	}
	return unit(sub(far, origin))
}

// stripCells partitions the plane into bands perpendicular to axis, one per
// site, split at the midpoints between neighbours.
func stripCells(sites []orb.Point, axis orb.Point) []Cell {
	order := make([]int, len(sites))
	for i := range order {
		order[i] = i
	}
	origin := sites[0]
	along := func(p orb.Point) float64 {
		return (p[0]-origin[0])*axis[0] + (p[1]-origin[1])*axis[1]
	}
	sort.Slice(order, func(i, j int) bool {
		return along(sites[order[i]]) < along(sites[order[j]])
	})

	cells := make([]Cell, len(sites))
	for k, s := range order {
		c := StripCell{Site: sites[s], Axis: axis}
		if k > 0 {
			lo := midpoint(sites[order[k-1]], sites[s])
			c.Lower = &lo
		}
		if k < len(order)-1 {
			hi := midpoint(sites[s], sites[order[k+1]])
			c.Upper = &hi
		}
		cells[s] = c
	}
	return cells
}

// fanEntry is one triangle incident to a site, seen from that site.
type fanEntry struct {
	angle  float64
	cw     int // neighbour on the clockwise edge
	ccw    int // neighbour on the counter-clockwise edge
	center orb.Point
}

// delaunayCells derives every site's Voronoi cell from the circumcenters of
// its incident Delaunay triangles.
func delaunayCells(sites []orb.Point) []Cell {
	tris := triangulate(sites)
	if len(tris) == 0 {
		// Nearly collinear sites whose only triangles were slivers.
		return stripCells(sites, farthestAxis(sites))
	}

	incident := make([][]int, len(sites))
	for ti, t := range tris {
		incident[t.a] = append(incident[t.a], ti)
		incident[t.b] = append(incident[t.b], ti)
		incident[t.c] = append(incident[t.c], ti)
	}

	var b orb.Bound
	for i, p := range sites {
		if i == 0 {
			b = p.Bound()
			continue
		}
		b = b.Extend(p)
	}
	tol := boundDiagonal(b) * relativeEpsilon

	cells := make([]Cell, len(sites))
	for s, site := range sites {
		fan := make([]fanEntry, 0, len(incident[s]))
		for _, ti := range incident[s] {
			t := tris[ti]
			cw, ccw := t.around(s)
			centroid := orb.Point{
				(sites[t.a][0] + sites[t.b][0] + sites[t.c][0]) / 3,
				(sites[t.a][1] + sites[t.b][1] + sites[t.c][1]) / 3,
			}
			fan = append(fan, fanEntry{
				angle:  math.Atan2(centroid[1]-site[1], centroid[0]-site[0]),
				cw:     cw,
				ccw:    ccw,
				center: t.center,
			})
		}
		cells[s] = fanCell(sites, s, fan, tol)
	}
	return cells
}

// fanCell orders a site's triangle fan counter-clockwise and turns it into a
// cell. A fan that does not close around the site belongs to a hull site and
// yields an UnboundedCell opening at the widest gap.
func fanCell(sites []orb.Point, s int, fan []fanEntry, tol float64) Cell {
	site := sites[s]
	if len(fan) == 0 {
		// Every triangle of this site touched the super triangle, so the
		// point is held in place like a duplicate.
		return DuplicateCell{Site: site, Of: -1}
	}

	sort.Slice(fan, func(i, j int) bool { return fan[i].angle < fan[j].angle })

	n := len(fan)
	start := -1
	widest := -1.0
	for j := 0; j < n; j++ {
		next := (j + 1) % n
		if n > 1 && fan[j].ccw == fan[next].cw {
			continue
		}
		gap := fan[next].angle - fan[j].angle
		if gap <= 0 {
			gap += 2 * math.Pi
		}
		if gap > widest {
			widest = gap
			start = next
		}
	}

	chain := make([]orb.Point, 0, n)
	first := 0
	if start >= 0 {
		first = start
	}
	for k := 0; k < n; k++ {
		chain = append(chain, fan[(first+k)%n].center)
	}

	if start < 0 {
		return BoundedCell{Site: site, Vertices: compact(chain, tol)}
	}

	head := fan[first]
	tail := fan[(first+n-1)%n]
	chain = dedupeChain(chain, tol)
	return UnboundedCell{
		Site:     site,
		Vertices: chain,
		In:       unit(rightNormal(sub(sites[head.cw], site))),
		Out:      unit(leftNormal(sub(sites[tail.ccw], site))),
	}
}

// dedupeChain removes consecutive repeats from an open chain without
// touching its ends.
func dedupeChain(chain []orb.Point, tol float64) []orb.Point {
	out := chain[:1]
	for _, p := range chain[1:] {
		if planar.Distance(out[len(out)-1], p) <= tol {
			continue
		}
		out = append(out, p)
	}
	return out
}
