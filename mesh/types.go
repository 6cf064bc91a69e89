package mesh

import (
	"github.com/paulmach/orb"
)

// Region modes accepted in RegionConfig.Mode.
const (
	RegionHull    = "hull"
	RegionBox     = "box"
	RegionPolygon = "polygon"
)

// Config represents the full configuration file
type Config struct {
	Iterations int          `yaml:"iterations" json:"iterations" toml:"iterations"`
	Tolerance  float64      `yaml:"tolerance,omitempty" json:"tolerance,omitempty" toml:"tolerance"` // Stop early once an iteration moves less than this in total
	Workers    int          `yaml:"workers,omitempty" json:"workers,omitempty" toml:"workers"`       // 0 means GOMAXPROCS
	Region     RegionConfig `yaml:"region" json:"region" toml:"region"`
	Render     RenderConfig `yaml:"render" json:"render" toml:"render"`
	MQTT       MQTTConfig   `yaml:"mqtt" json:"mqtt" toml:"mqtt"`
	HTTP       HTTPConfig   `yaml:"http" json:"http" toml:"http"`
}

// RegionConfig selects the polygon the points are confined to
type RegionConfig struct {
	Mode     string      `yaml:"mode" json:"mode" toml:"mode"`                                 // "hull", "box" or "polygon"
	Vertices [][]float64 `yaml:"vertices,omitempty" json:"vertices,omitempty" toml:"vertices"` // box: [min, max]; polygon: ring of [x, y]
}

// RenderConfig holds SVG/PNG output settings
type RenderConfig struct {
	Padding     float64 `yaml:"padding" json:"padding" toml:"padding"`                              // Margin around the region, in region units
	Scale       float64 `yaml:"scale" json:"scale" toml:"scale"`                                    // Millimeters of canvas per region unit
	PointRadius float64 `yaml:"pointRadius" json:"pointRadius" toml:"pointRadius"`                  // Millimeters
	StrokeWidth float64 `yaml:"strokeWidth" json:"strokeWidth" toml:"strokeWidth"`                  // Millimeters
	Resolution  float64 `yaml:"resolution,omitempty" json:"resolution,omitempty" toml:"resolution"` // PNG DPI (default 300)
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty" toml:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix" toml:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId" toml:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty" toml:"username"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty" toml:"password"`
}

// HTTPConfig holds the HTTP service settings
type HTTPConfig struct {
	Port int `yaml:"port" json:"port" toml:"port"`
}

// Snapshot is the published state of a relaxation run
type Snapshot struct {
	RunID        string       `json:"runId"`
	Iteration    int          `json:"iteration"`
	Displacement float64      `json:"displacement"`
	Points       [][2]float64 `json:"points"`
	Timestamp    int64        `json:"timestamp"`
}

// Status is the small summary published next to the points
type Status struct {
	RunID        string  `json:"runId"`
	Iteration    int     `json:"iteration"`
	Displacement float64 `json:"displacement"`
	Count        int     `json:"count"`
	Timestamp    int64   `json:"timestamp"`
}

// Status returns the summary of s.
func (s Snapshot) Status() Status {
	return Status{
		RunID:        s.RunID,
		Iteration:    s.Iteration,
		Displacement: s.Displacement,
		Count:        len(s.Points),
		Timestamp:    s.Timestamp,
	}
}

// pairs converts points to [x, y] pairs for JSON output
func pairs(points []orb.Point) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p[0], p[1]}
	}
	return out
}
