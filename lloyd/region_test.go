package lloyd

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func unitSquare() []orb.Point {
	return []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

// ---------------------------------------------------------------------------
// ConvexHull / FromConvexHull
// ---------------------------------------------------------------------------

func TestConvexHull(t *testing.T) {
	points := []orb.Point{{0, 0}, {1, 0}, {0.5, 0.5}, {1, 1}, {0, 1}, {0.5, 0}, {1, 1}}

	hull := ConvexHull(points)
	if len(hull) != 4 {
		t.Fatalf("len(hull) = %d, want 4 (interior, edge and duplicate points dropped): %v", len(hull), hull)
	}
	if signedArea(hull) <= 0 {
		t.Errorf("hull is not counter-clockwise: %v", hull)
	}
}

func TestConvexHull_Collinear(t *testing.T) {
	hull := ConvexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	if len(hull) != 2 {
		t.Errorf("len(hull) = %d, want 2 for collinear input", len(hull))
	}
}

func TestFromConvexHull(t *testing.T) {
	region, err := FromConvexHull([]orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}})
	if err != nil {
		t.Fatalf("FromConvexHull: %v", err)
	}
	if got := region.Area(); math.Abs(got-4) > 1e-12 {
		t.Errorf("Area() = %f, want 4", got)
	}
	if !region.Convex() {
		t.Error("hull region should be convex")
	}
	if got := len(region.Ring()); got != 4 {
		t.Errorf("len(Ring()) = %d, want 4", got)
	}
}

func TestFromConvexHull_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []orb.Point
	}{
		{"collinear", []orb.Point{{0, 0}, {1, 0}, {2, 0}}},
		{"coincident", []orb.Point{{1, 1}, {1, 1}, {1, 1}}},
		{"empty", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromConvexHull(tc.points)
			if !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("err = %v, want ErrInvalidRegion", err)
			}
			if !errors.Is(err, ErrDegenerateInput) {
				t.Errorf("err = %v, want ErrDegenerateInput", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// FromVertices / FromBound
// ---------------------------------------------------------------------------

func TestFromVertices_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []orb.Point
	}{
		{"too few", []orb.Point{{0, 0}, {1, 0}}},
		{"closed pair", []orb.Point{{0, 0}, {1, 0}, {0, 0}}},
		{"zero area", []orb.Point{{0, 0}, {1, 1}, {2, 2}}},
		{"self-intersecting", []orb.Point{{0, 0}, {2, 2}, {2, 0}, {0, 1}}},
		{"repeated vertex", []orb.Point{{0, 0}, {1, 0}, {1, 0}, {1, 1}}},
		{"nan", []orb.Point{{0, 0}, {1, 0}, {math.NaN(), 1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromVertices(tc.vertices)
			if !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("FromVertices(%v) err = %v, want ErrInvalidRegion", tc.vertices, err)
			}
		})
	}
}

func TestFromVertices_Orientation(t *testing.T) {
	clockwise := []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

	region, err := FromVertices(clockwise)
	if err != nil {
		t.Fatalf("FromVertices: %v", err)
	}
	if signedArea(region.Ring()) <= 0 {
		t.Errorf("ring not normalized to counter-clockwise: %v", region.Ring())
	}
	// Input must not be modified.
	if clockwise[1] != (orb.Point{0, 1}) {
		t.Errorf("input slice was modified: %v", clockwise)
	}
}

func TestFromVertices_ClosedRing(t *testing.T) {
	closed := append(unitSquare(), orb.Point{0, 0})

	region, err := FromVertices(closed)
	if err != nil {
		t.Fatalf("FromVertices: %v", err)
	}
	if got := len(region.Ring()); got != 4 {
		t.Errorf("len(Ring()) = %d, want 4", got)
	}
}

func TestFromVertices_NonConvex(t *testing.T) {
	region, err := FromVertices(lShape())
	if err != nil {
		t.Fatalf("FromVertices: %v", err)
	}
	if region.Convex() {
		t.Error("L-shaped region reported as convex")
	}
	if got := region.Area(); math.Abs(got-3) > 1e-12 {
		t.Errorf("Area() = %f, want 3", got)
	}
}

func TestFromBound(t *testing.T) {
	region, err := FromBound(orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 3}})
	if err != nil {
		t.Fatalf("FromBound: %v", err)
	}
	if got := region.Area(); got != 8 {
		t.Errorf("Area() = %f, want 8", got)
	}
	if got := region.Diameter(); math.Abs(got-math.Hypot(2, 4)) > 1e-12 {
		t.Errorf("Diameter() = %f, want %f", got, math.Hypot(2, 4))
	}

	if _, err := FromBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 1}}); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("flat box err = %v, want ErrInvalidRegion", err)
	}
}

// ---------------------------------------------------------------------------
// Contains / IntersectPolygon
// ---------------------------------------------------------------------------

func TestRegion_Contains(t *testing.T) {
	region, err := FromVertices(unitSquare())
	if err != nil {
		t.Fatalf("FromVertices: %v", err)
	}

	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"interior", orb.Point{0.5, 0.5}, true},
		{"on edge", orb.Point{1, 0.5}, true},
		{"vertex", orb.Point{0, 0}, true},
		{"just outside tolerance", orb.Point{1 + 1e-6, 0.5}, false},
		{"outside", orb.Point{2, 2}, false},
		{"nan", orb.Point{math.NaN(), 0.5}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := region.Contains(tc.p); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestRegion_IntersectPolygon(t *testing.T) {
	region, err := FromVertices(unitSquare())
	if err != nil {
		t.Fatalf("FromVertices: %v", err)
	}

	for _, tc := range []struct {
		name    string
		polygon orb.Ring
	}{
		{"counter-clockwise", orb.Ring{{0.5, 0.5}, {1.5, 0.5}, {1.5, 1.5}, {0.5, 1.5}}},
		{"clockwise", orb.Ring{{0.5, 0.5}, {0.5, 1.5}, {1.5, 1.5}, {1.5, 0.5}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clipped, err := region.IntersectPolygon(tc.polygon)
			if err != nil {
				t.Fatalf("IntersectPolygon: %v", err)
			}
			if got := signedArea(clipped); math.Abs(got-0.25) > 1e-12 {
				t.Errorf("area = %f, want 0.25", got)
			}
			c, err := Centroid(clipped)
			if err != nil {
				t.Fatalf("Centroid: %v", err)
			}
			if math.Abs(c[0]-0.75) > 1e-12 || math.Abs(c[1]-0.75) > 1e-12 {
				t.Errorf("centroid = %v, want (0.75, 0.75)", c)
			}
		})
	}
}

func lShape() []orb.Point {
	return []orb.Point{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
}
