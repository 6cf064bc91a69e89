package mesh

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/kwv/lloydmesh/lloyd"
)

// Feature kinds stored in the "kind" property
const (
	KindPoint  = "point"
	KindCell   = "cell"
	KindRegion = "region"
)

// PointsFeatureCollection returns one Point feature per input point, with its
// index as the "index" property
func PointsFeatureCollection(points []orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(p)
		f.Properties["kind"] = KindPoint
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc
}

// CellsFeatureCollection returns one Polygon feature per clipped cell, ordered
// by point index. Each feature carries "index", "area" and, when points is
// long enough, the generating "site". Cells with fewer than 3 vertices (held
// duplicates) are skipped.
func CellsFeatureCollection(cells map[int]orb.Ring, points []orb.Point) *geojson.FeatureCollection {
	indices := make([]int, 0, len(cells))
	for i := range cells {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	fc := geojson.NewFeatureCollection()
	for _, i := range indices {
		ring := closeRing(cells[i])
		if len(ring) < 4 {
			continue
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = KindCell
		f.Properties["index"] = i
		f.Properties["area"] = math.Abs(planar.Area(ring))
		if i < len(points) {
			f.Properties["site"] = []float64{points[i][0], points[i][1]}
		}
		fc.Append(f)
	}
	return fc
}

// RegionFeature returns the region boundary as a Polygon feature
func RegionFeature(region *lloyd.Region) *geojson.Feature {
	ring := closeRing(region.Ring())
	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties["kind"] = KindRegion
	f.Properties["area"] = region.Area()
	return f
}

// DiagramFeatureCollection combines the region, the cells and the points in
// one collection, region first
func DiagramFeatureCollection(region *lloyd.Region, points []orb.Point, cells map[int]orb.Ring) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if region != nil {
		fc.Append(RegionFeature(region))
	}
	fc.Features = append(fc.Features, CellsFeatureCollection(cells, points).Features...)
	fc.Features = append(fc.Features, PointsFeatureCollection(points).Features...)
	return fc
}

// SimplifyCells applies Douglas-Peucker simplification to every cell. Cells
// that would collapse below a triangle are kept as they are.
func SimplifyCells(cells map[int]orb.Ring, tolerance float64) map[int]orb.Ring {
	out := make(map[int]orb.Ring, len(cells))
	for i, ring := range cells {
		out[i] = simplifyRing(ring, tolerance)
	}
	return out
}

func simplifyRing(ring orb.Ring, tolerance float64) orb.Ring {
	if tolerance <= 0 || len(ring) < 4 {
		return ring.Clone()
	}

	ls := orb.LineString(closeRing(ring))
	s := simplify.DouglasPeucker(tolerance).Simplify(ls)
	result, ok := s.(orb.LineString)
	if !ok || len(result) < 4 {
		return ring.Clone()
	}
	// drop the closing vertex again
	return orb.Ring(result[:len(result)-1])
}

// WriteGeoJSON writes fc as indented JSON
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing GeoJSON: %w", err)
	}
	return nil
}

// WriteGeoJSONFile writes fc to path
func WriteGeoJSONFile(path string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating GeoJSON file: %w", err)
	}
	if err := WriteGeoJSON(f, fc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// closeRing returns a copy of ring with the first vertex repeated at the end
func closeRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring)+1)
	out = append(out, ring...)
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}
