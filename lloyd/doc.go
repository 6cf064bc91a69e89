// Package lloyd implements Lloyd relaxation of 2D point sets constrained to a
// bounded region.
//
// Each iteration builds the Voronoi diagram of the current points, clips every
// (possibly unbounded) cell against the region, and moves each point to the
// area centroid of its clipped cell. Points keep their index for the lifetime
// of a Field, so callers can match relaxed positions with their input.
//
//	field, err := lloyd.New(points)
//	if err != nil {
//	    return err
//	}
//	if err := field.Relax(10); err != nil {
//	    return err
//	}
//	relaxed := field.Points()
//
// Geometry uses github.com/paulmach/orb types throughout: points are
// orb.Point and polygons are open, counter-clockwise orb.Ring values.
package lloyd
