package mesh

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/lloydmesh/lloyd"
)

func TestPointsFeatureCollection(t *testing.T) {
	points := []orb.Point{{1, 2}, {3, 4}}
	fc := PointsFeatureCollection(points)

	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(fc.Features))
	}
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			t.Fatalf("feature %d geometry is %T, want orb.Point", i, f.Geometry)
		}
		if p != points[i] {
			t.Errorf("feature %d = %v, want %v", i, p, points[i])
		}
		if f.Properties["index"] != i {
			t.Errorf("feature %d index = %v", i, f.Properties["index"])
		}
	}
}

func TestCellsFeatureCollection(t *testing.T) {
	cells := map[int]orb.Ring{
		2: {{0, 0}, {2, 0}, {2, 1}, {0, 1}},
		0: {{0, 1}, {1, 1}, {1, 2}},
		1: {{5, 5}}, // held duplicate
	}
	points := []orb.Point{{0.3, 1.3}, {5, 5}, {1, 0.5}}

	fc := CellsFeatureCollection(cells, points)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, 0, first.Properties["index"])
	assert.InDelta(t, 0.5, first.Properties["area"], 1e-12)

	second := fc.Features[1]
	assert.Equal(t, 2, second.Properties["index"])
	assert.InDelta(t, 2.0, second.Properties["area"], 1e-12)
	assert.Equal(t, []float64{1, 0.5}, second.Properties["site"])

	poly, ok := second.Geometry.(orb.Polygon)
	require.True(t, ok, "geometry is %T", second.Geometry)
	ring := poly[0]
	assert.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring must be closed")
}

func TestRegionFeature(t *testing.T) {
	region, err := lloyd.FromBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 2}})
	require.NoError(t, err)

	f := RegionFeature(region)
	assert.Equal(t, KindRegion, f.Properties["kind"])
	assert.Equal(t, 8.0, f.Properties["area"])

	poly := f.Geometry.(orb.Polygon)
	assert.Len(t, poly[0], 5)
}

func TestDiagramFeatureCollection(t *testing.T) {
	region, err := lloyd.FromBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	require.NoError(t, err)
	points := []orb.Point{{0.25, 0.5}, {0.75, 0.5}}
	cells := map[int]orb.Ring{
		0: {{0, 0}, {0.5, 0}, {0.5, 1}, {0, 1}},
		1: {{0.5, 0}, {1, 0}, {1, 1}, {0.5, 1}},
	}

	fc := DiagramFeatureCollection(region, points, cells)
	require.Len(t, fc.Features, 5)
	assert.Equal(t, KindRegion, fc.Features[0].Properties["kind"])
	assert.Equal(t, KindCell, fc.Features[1].Properties["kind"])
	assert.Equal(t, KindPoint, fc.Features[4].Properties["kind"])
}

func TestWriteGeoJSON_RoundTrip(t *testing.T) {
	cells := map[int]orb.Ring{0: {{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	fc := CellsFeatureCollection(cells, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, fc))

	back, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, back.Features, 1)
	assert.Equal(t, "Polygon", back.Features[0].Geometry.GeoJSONType())
	// JSON numbers come back as float64
	assert.Equal(t, 0.0, back.Features[0].Properties["index"])
}

func TestWriteGeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, WriteGeoJSONFile(path, PointsFeatureCollection([]orb.Point{{1, 1}})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestSimplifyCells(t *testing.T) {
	// a square with a nearly straight extra vertex on its bottom edge
	cells := map[int]orb.Ring{
		0: {{0, 0}, {0.5, 0.001}, {1, 0}, {1, 1}, {0, 1}},
		1: {{0, 0}, {1, 0}, {0, 1}},
	}

	out := SimplifyCells(cells, 0.01)
	assert.Len(t, out[0], 4)
	assert.Equal(t, cells[1], out[1])

	unchanged := SimplifyCells(cells, 0)
	assert.Equal(t, cells[0], unchanged[0])

	// the input is never modified
	assert.Len(t, cells[0], 5)
}
