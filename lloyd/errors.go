package lloyd

import "errors"

var (
	// ErrInsufficientPoints is returned when a field is built from fewer than 3 points.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrInvalidRegion is returned for a bounding polygon that is degenerate,
	// self-intersecting, or does not contain the input points.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrDegenerateInput is returned when a diagram cannot be built from the
	// input, e.g. fewer than 2 distinct points or non-finite coordinates.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrEmptyIntersection is returned when a cell does not intersect the
	// bounding region. It indicates a point that escaped the region.
	ErrEmptyIntersection = errors.New("empty intersection")

	// ErrDegeneratePolygon is returned by Centroid for zero-area polygons.
	ErrDegeneratePolygon = errors.New("degenerate polygon")

	// ErrDuplicatePoint marks a point that shares its coordinates with an
	// earlier point. It is reported as a warning and never aborts relaxation.
	ErrDuplicatePoint = errors.New("duplicate point")
)
