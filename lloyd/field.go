package lloyd

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"
)

// Field runs Lloyd relaxation over a fixed set of points inside a Region.
//
// A Field owns its points and region exclusively. Relax replaces all points
// at once after every iteration, so Points never observes a half-finished
// step. A Field is not safe for concurrent use.
type Field struct {
	points []orb.Point
	region *Region

	// diagnostics from the last completed iteration
	cells        []orb.Ring
	duplicates   []int
	displacement float64
	iterations   int

	workers int
	logger  *log.Logger
}

// Option configures a Field.
type Option func(*Field)

// WithRegion confines the points to r instead of their convex hull.
func WithRegion(r *Region) Option {
	return func(f *Field) {
		f.region = r
	}
}

// WithWorkers sets how many points are clipped concurrently. Values below 1
// run the per-point loop sequentially.
func WithWorkers(n int) Option {
	return func(f *Field) {
		if n < 1 {
			n = 1
		}
		f.workers = n
	}
}

// WithLogger sets the logger for iteration progress and warnings.
func WithLogger(l *log.Logger) Option {
	return func(f *Field) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Field over a copy of points. Without WithRegion the region is
// the convex hull of points. Fewer than 3 points fail with
// ErrInsufficientPoints; a supplied region that does not contain every point
// fails with ErrInvalidRegion.
func New(points []orb.Point, opts ...Option) (*Field, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points, got %d", ErrInsufficientPoints, len(points))
	}
	for i, p := range points {
		if !finite(p) {
			return nil, fmt.Errorf("%w: point %d has non-finite coordinates", ErrDegenerateInput, i)
		}
	}

	f := &Field{
		points:  make([]orb.Point, len(points)),
		workers: runtime.GOMAXPROCS(0),
		logger:  log.New(io.Discard),
	}
	copy(f.points, points)

	for _, opt := range opts {
		opt(f)
	}

	if f.region == nil {
		region, err := FromConvexHull(f.points)
		if err != nil {
			return nil, fmt.Errorf("deriving region from points: %w", err)
		}
		f.region = region
		return f, nil
	}

	for i, p := range f.points {
		if !f.region.Contains(p) {
			return nil, fmt.Errorf("%w: point %d %v lies outside the region", ErrInvalidRegion, i, p)
		}
	}
	return f, nil
}

// Relax runs the given number of iterations. Zero iterations leave the
// points untouched. An iteration that fails leaves the points as they were
// before it.
func (f *Field) Relax(iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", iterations)
	}
	for i := 0; i < iterations; i++ {
		if err := f.step(); err != nil {
			return fmt.Errorf("iteration %d: %w", f.iterations+1, err)
		}
	}
	return nil
}

// RelaxUntil iterates until the total displacement of an iteration drops to
// tolerance or maxIterations have run. It returns the number of iterations
// performed.
func (f *Field) RelaxUntil(tolerance float64, maxIterations int) (int, error) {
	if maxIterations < 0 {
		return 0, fmt.Errorf("max iterations must not be negative, got %d", maxIterations)
	}
	for i := 0; i < maxIterations; i++ {
		if err := f.step(); err != nil {
			return i, fmt.Errorf("iteration %d: %w", f.iterations+1, err)
		}
		if f.displacement <= tolerance {
			f.logger.Debug("converged", "iterations", i+1, "displacement", f.displacement)
			return i + 1, nil
		}
	}
	return maxIterations, nil
}

// step builds the diagram, computes every centroid and only then swaps in
// the new positions.
func (f *Field) step() error {
	start := time.Now()

	diagram, err := Build(f.points)
	if err != nil {
		return fmt.Errorf("building diagram: %w", err)
	}
	if warn := diagram.Warning(); warn != nil {
		f.logger.Warn("holding duplicate points in place", "count", len(diagram.Duplicates), "err", warn)
	}

	next := make([]orb.Point, len(f.points))
	rings := make([]orb.Ring, len(f.points))

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, cell := range diagram.Cells {
		g.Go(func() error {
			ring, err := Clip(cell, f.region)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			rings[i] = ring
			next[i] = f.relocate(i, cell, ring)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var moved float64
	for i := range next {
		moved += planar.Distance(f.points[i], next[i])
	}

	f.points = next
	f.cells = rings
	f.duplicates = diagram.Duplicates
	f.displacement = moved
	f.iterations++

	f.logger.Debug("relaxed",
		"iteration", f.iterations,
		"displacement", moved,
		"elapsed", time.Since(start).Round(time.Microsecond))
	return nil
}

// relocate returns the new position of point i given its clipped cell.
func (f *Field) relocate(i int, cell Cell, ring orb.Ring) orb.Point {
	if _, ok := cell.(DuplicateCell); ok {
		return f.points[i]
	}

	c, err := Centroid(ring)
	if err != nil {
		if !errors.Is(err, ErrDegeneratePolygon) {
			f.logger.Warn("keeping point in place", "index", i, "err", err)
			return f.points[i]
		}
		c = VertexAverage(ring)
		f.logger.Debug("degenerate cell, using vertex average", "index", i)
	}

	// Centroids of cells clipped to a non-convex region can fall outside it.
	if !f.region.Contains(c) {
		c, _ = f.region.closestBoundaryPoint(c)
	}
	return c
}

// Points returns a copy of the current positions in input order.
func (f *Field) Points() []orb.Point {
	out := make([]orb.Point, len(f.points))
	copy(out, f.points)
	return out
}

// Cells returns copies of the clipped cells of the last iteration keyed by
// point index. It is empty before the first iteration.
func (f *Field) Cells() map[int]orb.Ring {
	out := make(map[int]orb.Ring, len(f.cells))
	for i, r := range f.cells {
		out[i] = r.Clone()
	}
	return out
}

// Region returns the field's bounding region.
func (f *Field) Region() *Region {
	return f.region
}

// Len returns the number of points.
func (f *Field) Len() int {
	return len(f.points)
}

// Iterations returns how many iterations have completed.
func (f *Field) Iterations() int {
	return f.iterations
}

// Displacement returns the summed distance the points moved in the last
// iteration.
func (f *Field) Displacement() float64 {
	return f.displacement
}

// Duplicates returns the indices held in place as duplicates in the last
// iteration.
func (f *Field) Duplicates() []int {
	return append([]int(nil), f.duplicates...)
}
