package mesh

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/kwv/lloydmesh/lloyd"
)

// Defaults applied to zero-valued config fields.
const (
	DefaultIterations    = 10
	DefaultPadding       = 0.05
	DefaultScale         = 100
	DefaultPointRadius   = 1.2
	DefaultStrokeWidth   = 0.4
	DefaultResolution    = 300
	DefaultPublishPrefix = "lloydmesh"
	DefaultClientID      = "lloydmesh"
	DefaultHTTPPort      = 4321
)

// DefaultConfig returns a configuration with every default and MQTT_*
// environment override applied. It is used when no config file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// LoadConfig loads the configuration from a YAML file, or a TOML file when the
// path ends in .toml
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing config TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.Region.Mode == "" {
		c.Region.Mode = RegionHull
	}
	if c.Render.Padding == 0 {
		c.Render.Padding = DefaultPadding
	}
	if c.Render.Scale == 0 {
		c.Render.Scale = DefaultScale
	}
	if c.Render.PointRadius == 0 {
		c.Render.PointRadius = DefaultPointRadius
	}
	if c.Render.StrokeWidth == 0 {
		c.Render.StrokeWidth = DefaultStrokeWidth
	}
	if c.Render.Resolution == 0 {
		c.Render.Resolution = DefaultResolution
	}
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = DefaultPublishPrefix
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
}

// applyEnv lets MQTT_* environment variables override the file, the same
// variables Connect honours.
func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"MQTT_BROKER":         &c.MQTT.Broker,
		"MQTT_CLIENT_ID":      &c.MQTT.ClientID,
		"MQTT_USERNAME":       &c.MQTT.Username,
		"MQTT_PASSWORD":       &c.MQTT.Password,
		"MQTT_PUBLISH_PREFIX": &c.MQTT.PublishPrefix,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// Validate checks the configuration for values the relaxation cannot use
func (c *Config) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %g", c.Tolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Render.Padding < 0 || c.Render.Scale <= 0 || c.Render.PointRadius < 0 || c.Render.StrokeWidth < 0 {
		return fmt.Errorf("render settings must be positive")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}

	switch c.Region.Mode {
	case RegionHull:
	case RegionBox:
		if len(c.Region.Vertices) != 2 {
			return fmt.Errorf("region.vertices must hold [min, max] for box mode, got %d entries", len(c.Region.Vertices))
		}
	case RegionPolygon:
		if len(c.Region.Vertices) < 3 {
			return fmt.Errorf("region.vertices needs at least 3 entries for polygon mode, got %d", len(c.Region.Vertices))
		}
	default:
		return fmt.Errorf("unknown region.mode %q", c.Region.Mode)
	}
	for i, v := range c.Region.Vertices {
		if len(v) != 2 {
			return fmt.Errorf("region.vertices[%d] must be [x, y], got %d values", i, len(v))
		}
	}
	return nil
}

// BuildRegion returns the configured region, or nil in hull mode so the field
// derives it from the points.
func (c *Config) BuildRegion() (*lloyd.Region, error) {
	vertices := make([]orb.Point, len(c.Region.Vertices))
	for i, v := range c.Region.Vertices {
		if len(v) != 2 {
			return nil, fmt.Errorf("region.vertices[%d] must be [x, y]", i)
		}
		vertices[i] = orb.Point{v[0], v[1]}
	}

	switch c.Region.Mode {
	case "", RegionHull:
		return nil, nil
	case RegionBox:
		if len(vertices) != 2 {
			return nil, fmt.Errorf("box region needs [min, max], got %d vertices", len(vertices))
		}
		return lloyd.FromBound(orb.Bound{Min: vertices[0], Max: vertices[1]})
	case RegionPolygon:
		return lloyd.FromVertices(vertices)
	default:
		return nil, fmt.Errorf("unknown region mode %q", c.Region.Mode)
	}
}
