package lloyd

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestCentroid(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		want orb.Point
	}{
		{"unit square", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, orb.Point{0.5, 0.5}},
		{"closed ring", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, orb.Point{0.5, 0.5}},
		{"clockwise", orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, orb.Point{0.5, 0.5}},
		{"triangle", orb.Ring{{0, 0}, {3, 0}, {0, 3}}, orb.Point{1, 1}},
		{"far from origin", orb.Ring{{1e6, 1e6}, {1e6 + 2, 1e6}, {1e6 + 2, 1e6 + 2}, {1e6, 1e6 + 2}}, orb.Point{1e6 + 1, 1e6 + 1}},
		{"l-shape", orb.Ring(lShape()), orb.Point{5.0 / 6, 5.0 / 6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Centroid(tc.ring)
			if err != nil {
				t.Fatalf("Centroid: %v", err)
			}
			if !approxPoint(got, tc.want, 1e-9) {
				t.Errorf("Centroid = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCentroid_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		want error
	}{
		{"empty", nil, ErrEmptyIntersection},
		{"single vertex", orb.Ring{{1, 1}}, ErrDegeneratePolygon},
		{"segment", orb.Ring{{0, 0}, {1, 1}}, ErrDegeneratePolygon},
		{"collinear", orb.Ring{{0, 0}, {1, 1}, {2, 2}}, ErrDegeneratePolygon},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Centroid(tc.ring)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVertexAverage(t *testing.T) {
	if got := VertexAverage(orb.Ring{{0, 0}, {1, 1}, {2, 2}}); !approxPoint(got, orb.Point{1, 1}, 1e-12) {
		t.Errorf("VertexAverage = %v, want (1, 1)", got)
	}
	if got := VertexAverage(orb.Ring{{0, 0}, {2, 0}, {0, 0}}); !approxPoint(got, orb.Point{1, 0}, 1e-12) {
		t.Errorf("closing vertex counted: got %v, want (1, 0)", got)
	}
}
